package rollup

import (
	"sort"

	"github.com/dvloznov/ledgerconv/internal/ledger"
)

// AccountValues holds the twelve general-account totals for one year.
// Field order is the serialized key order.
type AccountValues struct {
	TaxRevenue     int64 `json:"tax_revenue"`
	Subsidy        int64 `json:"subsidy"`
	LoanIn         int64 `json:"loan_in"`
	DividendIn     int64 `json:"dividend_in"`
	AssetSold      int64 `json:"asset_sold"`
	CarriedForward int64 `json:"carried_forward"`
	DirectBiz      int64 `json:"direct_biz"`
	SupportBiz     int64 `json:"support_biz"`
	LoanRepay      int64 `json:"loan_repay"`
	LoanOut        int64 `json:"loan_out"`
	DividendOut    int64 `json:"dividend_out"`
	AssetBuy       int64 `json:"asset_buy"`
}

// Add accumulates amount into bucket.
func (a *AccountValues) Add(bucket Bucket, amount int64) {
	switch bucket {
	case TaxRevenue:
		a.TaxRevenue += amount
	case Subsidy:
		a.Subsidy += amount
	case LoanIn:
		a.LoanIn += amount
	case DividendIn:
		a.DividendIn += amount
	case AssetSold:
		a.AssetSold += amount
	case CarriedForward:
		a.CarriedForward += amount
	case DirectBiz:
		a.DirectBiz += amount
	case SupportBiz:
		a.SupportBiz += amount
	case LoanRepay:
		a.LoanRepay += amount
	case LoanOut:
		a.LoanOut += amount
	case DividendOut:
		a.DividendOut += amount
	case AssetBuy:
		a.AssetBuy += amount
	}
}

// TotalRevenue sums the revenue-side buckets counted by the general account.
func (a AccountValues) TotalRevenue() int64 {
	return a.TaxRevenue + a.Subsidy + a.LoanIn + a.AssetSold
}

// TotalExpenditure sums the expenditure-side buckets counted by the general
// account. dividend_out is tracked but not part of the total.
func (a AccountValues) TotalExpenditure() int64 {
	return a.DirectBiz + a.SupportBiz + a.LoanRepay + a.LoanOut + a.AssetBuy
}

// NetAssets is total revenue minus total expenditure.
func (a AccountValues) NetAssets() int64 {
	return a.TotalRevenue() - a.TotalExpenditure()
}

// ProjectYear is one project's rollup for a single year.
type ProjectYear struct {
	ID          string
	Name        string
	Group       string
	Expenditure int64
	Revenue     int64
	Budget      int64
	KPI         string
}

// YearResult is the output of aggregating one year.
type YearResult struct {
	Year     int
	Accounts AccountValues
	Projects []ProjectYear
}

// Years returns the distinct years across both ledgers, ascending.
func Years(exp, rev *ledger.Ledger) []int {
	seen := make(map[int]bool)
	var years []int
	for _, l := range []*ledger.Ledger{exp, rev} {
		for _, y := range l.Years() {
			if !seen[y] {
				seen[y] = true
				years = append(years, y)
			}
		}
	}
	sort.Ints(years)
	return years
}

type projectSums struct {
	expenditure int64
	revenue     int64
	budget      int64
}

// AggregateYear computes per-project rollups and account values for year.
// Projects are listed in first-appearance order: expenditure rows, then
// revenue rows. Rows from a ledger without a Project_ID column are ignored.
func AggregateYear(year int, exp, rev *ledger.Ledger, reg *ledger.Registry) YearResult {
	var order []string
	sums := make(map[string]*projectSums)
	get := func(id string) *projectSums {
		s, ok := sums[id]
		if !ok {
			s = &projectSums{}
			sums[id] = s
			order = append(order, id)
		}
		return s
	}

	if exp != nil && exp.HasProjectID {
		for _, row := range exp.ForYear(year) {
			s := get(row.ProjectID)
			s.expenditure += row.Amount
			if row.PlannedInvestment != nil {
				s.budget += *row.PlannedInvestment
			}
		}
	}
	if rev != nil && rev.HasProjectID {
		for _, row := range rev.ForYear(year) {
			get(row.ProjectID).revenue += row.Amount
		}
	}

	result := YearResult{Year: year, Projects: make([]ProjectYear, 0, len(order))}
	for _, id := range order {
		s := sums[id]
		info := reg.Lookup(id)

		result.Projects = append(result.Projects, ProjectYear{
			ID:          id,
			Name:        info.Name,
			Group:       info.Group,
			Expenditure: s.expenditure,
			Revenue:     s.revenue,
			Budget:      s.budget,
			KPI:         KPILabel(s.expenditure, s.revenue, s.budget),
		})

		result.Accounts.Add(ClassifyExpenditure(info.Group), s.expenditure)
		result.Accounts.Add(TaxRevenue, s.revenue)
	}

	return result
}
