package report

import "github.com/dvloznov/ledgerconv/internal/rollup"

// BuildYear turns one year's aggregation into its output document.
func BuildYear(res rollup.YearResult) YearDocument {
	groups := rollup.GroupProjects(res.Projects)

	doc := YearDocument{
		Year: res.Year,
		GeneralAccount: GeneralAccount{
			Values:    res.Accounts,
			NetAssets: res.Accounts.NetAssets(),
		},
		Distributions: make([]Distribution, 0, len(groups)),
	}

	for _, g := range groups {
		doc.Distributions = append(doc.Distributions, buildDistribution(g))
	}
	return doc
}

func buildDistribution(g rollup.Group) Distribution {
	subs := make([]SubProject, 0, len(g.Projects))
	for _, p := range g.Projects {
		subs = append(subs, SubProject{
			ID:     p.ID,
			Name:   p.Name,
			Group:  p.Group,
			Amount: p.Expenditure,
			Financials: ProjectFinancials{
				Revenue:     p.Revenue,
				Expenditure: p.Expenditure,
				Budget:      p.Budget,
			},
			PnLKPI: PnLKPI{KPIActual: p.KPI},
		})
	}

	return Distribution{
		ID:     g.ID,
		Name:   g.Name,
		Type:   DistributionType,
		Amount: g.Expenditure,
		Financials: GroupFinancials{
			Revenue:     g.Revenue,
			Expenditure: g.Expenditure,
		},
		BalanceSheet: BalanceSheet{
			AssetsColumn:      []LineItem{{Label: RevenueLabel, Value: g.Revenue}},
			LiabilitiesColumn: []LineItem{{Label: ExpenditureLabel, Value: g.Expenditure}},
			NetAssets:         g.NetAssets(),
		},
		SubProjects: subs,
	}
}
