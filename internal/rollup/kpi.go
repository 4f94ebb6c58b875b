package rollup

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NoKPI is the label for projects with neither budget nor revenue.
const NoKPI = "-"

var amountPrinter = message.NewPrinter(language.English)

// KPILabel summarizes a project for one year. A planned investment takes
// precedence over revenue.
func KPILabel(expenditure, revenue, planned int64) string {
	switch {
	case planned > 0:
		ratio := float64(expenditure) / float64(planned) * 100
		return fmt.Sprintf("budget ratio %.0f%%", ratio)
	case revenue > 0:
		return amountPrinter.Sprintf("revenue %d currency-units", revenue)
	default:
		return NoKPI
	}
}
