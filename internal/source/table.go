package source

import (
	"errors"
	"strings"

	"github.com/dvloznov/ledgerconv/internal/ledger"
)

const byteOrderMark = "\ufeff"

var errNoHeader = errors.New("no header row")

// newRawTable turns a grid of cells into a RawTable. The first non-blank row
// is the header; header cells are trimmed, data rows are padded to the header
// width and blank rows are skipped.
func newRawTable(role ledger.Role, src string, rows [][]string) (*ledger.RawTable, error) {
	start := 0
	for start < len(rows) && isBlank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, errNoHeader
	}

	header := make([]string, len(rows[start]))
	for i, h := range rows[start] {
		if i == 0 {
			h = strings.TrimPrefix(h, byteOrderMark)
		}
		header[i] = strings.TrimSpace(h)
	}

	table := &ledger.RawTable{Role: role, Source: src, Header: header}
	for _, row := range rows[start+1:] {
		if isBlank(row) {
			continue
		}
		cells := make([]string, len(header))
		copy(cells, row)
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
