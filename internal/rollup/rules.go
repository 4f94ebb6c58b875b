package rollup

import "strings"

// Bucket is a general-account category id.
type Bucket string

const (
	TaxRevenue     Bucket = "tax_revenue"
	Subsidy        Bucket = "subsidy"
	LoanIn         Bucket = "loan_in"
	DividendIn     Bucket = "dividend_in"
	AssetSold      Bucket = "asset_sold"
	CarriedForward Bucket = "carried_forward"
	DirectBiz      Bucket = "direct_biz"
	SupportBiz     Bucket = "support_biz"
	LoanRepay      Bucket = "loan_repay"
	LoanOut        Bucket = "loan_out"
	DividendOut    Bucket = "dividend_out"
	AssetBuy       Bucket = "asset_buy"
)

// Category ids assigned to group distributions.
const (
	CategoryDirect    = "direct"
	CategorySupport   = "support"
	CategoryLoanOut   = "loan_out"
	CategoryLoanRepay = "loan_repay"
	CategoryAssetBuy  = "asset_buy"
)

// Rule maps group-name markers to an account bucket and a distribution
// category. An empty Category means the rule does not apply at group level;
// the direct-operation and dividend rules are bucket-only, so a group such
// as "直営の支援" is a support group whose expenditure is still direct_biz.
type Rule struct {
	Markers  []string
	Bucket   Bucket
	Category string
}

// Matches reports whether group contains any of the rule's markers.
func (r Rule) Matches(group string) bool {
	for _, m := range r.Markers {
		if strings.Contains(group, m) {
			return true
		}
	}
	return false
}

// Rules is the classification table in priority order. The first matching
// rule wins. It is shared by project and group classification and must not
// be modified.
var Rules = []Rule{
	{Markers: []string{"直営", "direct-op"}, Bucket: DirectBiz},
	{Markers: []string{"支援", "support"}, Bucket: SupportBiz, Category: CategorySupport},
	{Markers: []string{"貸付", "lending"}, Bucket: LoanOut, Category: CategoryLoanOut},
	{Markers: []string{"返済", "repayment"}, Bucket: LoanRepay, Category: CategoryLoanRepay},
	{Markers: []string{"資産", "asset"}, Bucket: AssetBuy, Category: CategoryAssetBuy},
	{Markers: []string{"配当", "dividend"}, Bucket: DividendOut},
}

// ClassifyExpenditure returns the account bucket a project's expenditure
// belongs to. Unmatched groups fall into direct_biz.
func ClassifyExpenditure(group string) Bucket {
	for _, r := range Rules {
		if r.Matches(group) {
			return r.Bucket
		}
	}
	return DirectBiz
}

// ClassifyGroup returns the distribution category id for a group name.
// Rules without a group-level category are skipped.
func ClassifyGroup(group string) string {
	for _, r := range Rules {
		if r.Category == "" {
			continue
		}
		if r.Matches(group) {
			return r.Category
		}
	}
	return CategoryDirect
}
