package ledger

// Role identifies which of the two ledgers a table carries.
type Role string

const (
	// RoleExpenditure is the money-out ledger.
	RoleExpenditure Role = "expenditure"
	// RoleRevenue is the money-in ledger.
	RoleRevenue Role = "revenue"
)

// Roles lists the ledger roles in the order they are processed.
var Roles = []Role{RoleExpenditure, RoleRevenue}

// Column names as they appear in the source header row.
const (
	ColumnYear              = "Year"
	ColumnProjectID         = "Project_ID"
	ColumnAmount            = "Amount"
	ColumnPlannedInvestment = "Planned_Investment"
	ColumnProjectName       = "Project_Name"
	ColumnGroupName         = "Group_Name"
)

// Sentinels used when no ledger row supplies a project name or group.
const (
	UnknownName = "unknown"
	OtherGroup  = "other"
)

// RawTable is a ledger exactly as read from a source: a header and string cells.
// Rows are padded to the header width by the loader.
type RawTable struct {
	Role   Role
	Source string
	Header []string
	Rows   [][]string
}

// Index returns the position of the named column, or -1 if the header lacks it.
func (t *RawTable) Index(column string) int {
	for i, h := range t.Header {
		if h == column {
			return i
		}
	}
	return -1
}

// Row is one cleaned ledger record. Optional fields are nil when the column is
// absent from the source or the cell holds a missing-value token.
type Row struct {
	Year              int
	ProjectID         string
	Amount            int64
	PlannedInvestment *int64
	ProjectName       *string
	GroupName         *string
}

// Ledger is a cleaned table. HasProjectID and HasPlannedInvestment record
// whether the source header carried those columns at all.
type Ledger struct {
	Role                 Role
	HasProjectID         bool
	HasPlannedInvestment bool
	Rows                 []Row
}

// Years returns the distinct years present in the ledger, in first-seen order.
func (l *Ledger) Years() []int {
	if l == nil {
		return nil
	}
	seen := make(map[int]bool)
	var years []int
	for _, r := range l.Rows {
		if !seen[r.Year] {
			seen[r.Year] = true
			years = append(years, r.Year)
		}
	}
	return years
}

// ForYear returns the rows recorded for the given year, preserving order.
func (l *Ledger) ForYear(year int) []Row {
	if l == nil {
		return nil
	}
	var rows []Row
	for _, r := range l.Rows {
		if r.Year == year {
			rows = append(rows, r)
		}
	}
	return rows
}
