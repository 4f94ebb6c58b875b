package ledger

import "strings"

// Clean normalizes a raw table into a Ledger.
//
// Rows whose Year cannot be parsed are dropped. Amount and Planned_Investment
// cells that cannot be parsed become zero. Numeric values are truncated toward
// zero. A nil table yields an empty ledger. Clean never fails; every coerced
// cell is reported as a RowCoercionWarning.
func Clean(raw *RawTable) (*Ledger, []RowCoercionWarning) {
	if raw == nil {
		return &Ledger{}, nil
	}

	yearIdx := raw.Index(ColumnYear)
	idIdx := raw.Index(ColumnProjectID)
	amountIdx := raw.Index(ColumnAmount)
	plannedIdx := raw.Index(ColumnPlannedInvestment)
	nameIdx := raw.Index(ColumnProjectName)
	groupIdx := raw.Index(ColumnGroupName)

	out := &Ledger{
		Role:                 raw.Role,
		HasProjectID:         idIdx >= 0,
		HasPlannedInvestment: plannedIdx >= 0,
		Rows:                 make([]Row, 0, len(raw.Rows)),
	}
	var warnings []RowCoercionWarning

	for i, cells := range raw.Rows {
		rowNum := i + 1
		cell := func(idx int) string {
			if idx < 0 || idx >= len(cells) {
				return ""
			}
			return cells[idx]
		}

		year, ok := parseInteger(cell(yearIdx))
		if ok && int64(int(year)) != year {
			ok = false
		}
		if !ok {
			warnings = append(warnings, RowCoercionWarning{
				Role: raw.Role, Row: rowNum, Column: ColumnYear, Value: cell(yearIdx), Dropped: true,
			})
			continue
		}

		row := Row{Year: int(year)}

		if idIdx >= 0 {
			row.ProjectID = strings.TrimSpace(cell(idIdx))
		}

		if amountIdx >= 0 {
			v, ok := parseInteger(cell(amountIdx))
			if !ok && !IsMissing(strings.TrimSpace(cell(amountIdx))) {
				warnings = append(warnings, RowCoercionWarning{
					Role: raw.Role, Row: rowNum, Column: ColumnAmount, Value: cell(amountIdx),
				})
			}
			row.Amount = v
		}

		if plannedIdx >= 0 {
			v, ok := parseInteger(cell(plannedIdx))
			if !ok && !IsMissing(strings.TrimSpace(cell(plannedIdx))) {
				warnings = append(warnings, RowCoercionWarning{
					Role: raw.Role, Row: rowNum, Column: ColumnPlannedInvestment, Value: cell(plannedIdx),
				})
			}
			row.PlannedInvestment = &v
		}

		if nameIdx >= 0 {
			row.ProjectName = optionalString(cell(nameIdx))
		}
		if groupIdx >= 0 {
			row.GroupName = optionalString(cell(groupIdx))
		}

		out.Rows = append(out.Rows, row)
	}

	return out, warnings
}
