package source

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/ledgerconv/internal/ledger"
)

// Sheet names the workbook must carry, one per role.
var sheetNames = map[ledger.Role]string{
	ledger.RoleExpenditure: "Expenditure",
	ledger.RoleRevenue:     "Revenue",
}

// ReadWorkbook reads both ledgers from an .xlsx workbook. It fails unless
// every role's sheet is present and has a header row.
func ReadWorkbook(path string) (map[ledger.Role]*ledger.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	tables := make(map[ledger.Role]*ledger.RawTable, len(ledger.Roles))
	for _, role := range ledger.Roles {
		sheet := sheetNames[role]
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		table, err := newRawTable(role, path+"#"+sheet, rows)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		tables[role] = table
	}
	return tables, nil
}
