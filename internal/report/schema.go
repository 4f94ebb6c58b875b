package report

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/dvloznov/ledgerconv/internal/rollup"
)

// Labels used inside each distribution.
const (
	DistributionType = "project"
	RevenueLabel     = "revenue"
	ExpenditureLabel = "expenditure"
)

// Ratio is a float that always serializes with a fractional part, so a zero
// target reads as 0.0 rather than 0.
type Ratio float64

// MarshalJSON implements json.Marshaler.
func (r Ratio) MarshalJSON() ([]byte, error) {
	s := strconv.FormatFloat(float64(r), 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return []byte(s), nil
}

// YearDocument is the summary for one fiscal year.
type YearDocument struct {
	Year           int            `json:"year"`
	GeneralAccount GeneralAccount `json:"generalAccount"`
	Distributions  []Distribution `json:"distributions"`
}

// GeneralAccount carries the twelve account totals and their net.
type GeneralAccount struct {
	Values    rollup.AccountValues `json:"values"`
	NetAssets int64                `json:"netAssets"`
}

// Distribution is one project group's rollup.
type Distribution struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Amount         int64           `json:"amount"`
	RecoveryTarget Ratio           `json:"recovery_target"`
	Financials     GroupFinancials `json:"financials"`
	BalanceSheet   BalanceSheet    `json:"balanceSheet"`
	SubProjects    []SubProject    `json:"sub_projects"`
}

// GroupFinancials are the summed member totals of a group.
type GroupFinancials struct {
	Revenue     int64 `json:"revenue"`
	Expenditure int64 `json:"expenditure"`
}

// BalanceSheet is the two-column view of a group.
type BalanceSheet struct {
	AssetsColumn      []LineItem `json:"assets_column"`
	LiabilitiesColumn []LineItem `json:"liabilities_column"`
	NetAssets         int64      `json:"netAssets"`
}

// LineItem is one balance-sheet row.
type LineItem struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// SubProject is one project inside a distribution.
type SubProject struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Group          string            `json:"group"`
	Amount         int64             `json:"amount"`
	RecoveryTarget Ratio             `json:"recovery_target"`
	Financials     ProjectFinancials `json:"financials"`
	PnLKPI         PnLKPI            `json:"pnl_kpi"`
}

// ProjectFinancials are one project's totals for the year.
type ProjectFinancials struct {
	Revenue     int64 `json:"revenue"`
	Expenditure int64 `json:"expenditure"`
	Budget      int64 `json:"budget"`
}

// PnLKPI holds the display KPI of a project.
type PnLKPI struct {
	KPIActual string `json:"kpi_actual"`
}

// Document maps year strings to year documents, kept in ascending year order.
type Document struct {
	years []int
	docs  map[int]YearDocument
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{docs: make(map[int]YearDocument)}
}

// Put stores the document for its year, replacing any previous one.
func (d *Document) Put(doc YearDocument) {
	if _, ok := d.docs[doc.Year]; !ok {
		i := 0
		for i < len(d.years) && d.years[i] < doc.Year {
			i++
		}
		d.years = append(d.years, 0)
		copy(d.years[i+1:], d.years[i:])
		d.years[i] = doc.Year
	}
	d.docs[doc.Year] = doc
}

// Get returns the document for year.
func (d *Document) Get(year int) (YearDocument, bool) {
	doc, ok := d.docs[year]
	return doc, ok
}

// Years returns the stored years in ascending order.
func (d *Document) Years() []int {
	years := make([]int, len(d.years))
	copy(years, d.years)
	return years
}

// Len returns the number of years stored.
func (d *Document) Len() int {
	return len(d.years)
}

// MarshalJSON emits the years as object keys in ascending numeric order.
// encoding/json would sort map keys as strings instead.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, year := range d.years {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(strconv.Itoa(year))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var val bytes.Buffer
		enc := json.NewEncoder(&val)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(d.docs[year]); err != nil {
			return nil, err
		}
		buf.Write(bytes.TrimRight(val.Bytes(), "\n"))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
