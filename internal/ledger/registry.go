package ledger

// ProjectInfo is the display metadata of one project.
type ProjectInfo struct {
	Name  string
	Group string
}

// Registry maps project ids to their display name and group.
type Registry struct {
	entries map[string]*ProjectInfo
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*ProjectInfo)}
}

// BuildRegistry folds the ledgers into a registry in the order given.
// Callers pass expenditure before revenue; later non-empty values win.
func BuildRegistry(ledgers ...*Ledger) *Registry {
	reg := NewRegistry()
	for _, l := range ledgers {
		reg.Update(l)
	}
	return reg
}

// Update applies every row of l in order. A ledger without a Project_ID
// column leaves the registry untouched. Entries are never removed.
func (r *Registry) Update(l *Ledger) {
	if l == nil || !l.HasProjectID {
		return
	}
	for _, row := range l.Rows {
		info, ok := r.entries[row.ProjectID]
		if !ok {
			info = &ProjectInfo{Name: UnknownName, Group: OtherGroup}
			r.entries[row.ProjectID] = info
		}
		if row.ProjectName != nil {
			info.Name = *row.ProjectName
		}
		if row.GroupName != nil {
			info.Group = *row.GroupName
		}
	}
}

// Lookup returns the entry for id, falling back to the sentinel pair for ids
// the registry has never seen.
func (r *Registry) Lookup(id string) ProjectInfo {
	if info, ok := r.entries[id]; ok {
		return *info
	}
	return ProjectInfo{Name: UnknownName, Group: OtherGroup}
}

// Len returns the number of registered projects.
func (r *Registry) Len() int {
	return len(r.entries)
}
