package rollup

import "sort"

// Group is the rollup of all projects sharing one group name in a year.
type Group struct {
	ID          string
	Name        string
	Expenditure int64
	Revenue     int64
	Projects    []ProjectYear
}

// NetAssets is revenue minus expenditure.
func (g Group) NetAssets() int64 {
	return g.Revenue - g.Expenditure
}

// GroupProjects groups projects by exact group name. Groups are returned in
// ascending name order; members keep their input order.
func GroupProjects(projects []ProjectYear) []Group {
	byName := make(map[string]*Group)
	for _, p := range projects {
		g, ok := byName[p.Group]
		if !ok {
			g = &Group{ID: ClassifyGroup(p.Group), Name: p.Group}
			byName[p.Group] = g
		}
		g.Expenditure += p.Expenditure
		g.Revenue += p.Revenue
		g.Projects = append(g.Projects, p)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]Group, 0, len(names))
	for _, name := range names {
		groups = append(groups, *byName[name])
	}
	return groups
}
