// Package source locates and reads the expenditure and revenue ledgers.
//
// A workbook with Expenditure and Revenue sheets is preferred. When it is
// absent or unreadable the loader falls back to delimited files in a
// directory, assigning each file a role from markers in its name.
package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dvloznov/ledgerconv/internal/ledger"
	"github.com/dvloznov/ledgerconv/internal/logger"
)

// Options tell the loader where to look.
type Options struct {
	// WorkbookPath is the .xlsx file to try first. Empty skips the workbook.
	WorkbookPath string
	// Dir holds the *.tsv and *.csv fallback files. Empty means ".".
	Dir string
}

// Sources holds the raw tables found for each role. A nil table means the
// role was not found.
type Sources struct {
	Expenditure *ledger.RawTable
	Revenue     *ledger.RawTable

	searched string
}

// Get returns the table for role.
func (s *Sources) Get(role ledger.Role) *ledger.RawTable {
	switch role {
	case ledger.RoleExpenditure:
		return s.Expenditure
	case ledger.RoleRevenue:
		return s.Revenue
	}
	return nil
}

func (s *Sources) set(role ledger.Role, t *ledger.RawTable) {
	switch role {
	case ledger.RoleExpenditure:
		s.Expenditure = t
	case ledger.RoleRevenue:
		s.Revenue = t
	}
}

// Require returns a MissingInputError for the first role without a table.
func (s *Sources) Require() error {
	for _, r := range ledger.Roles {
		if s.Get(r) == nil {
			return &ledger.MissingInputError{Role: r, Searched: s.searched}
		}
	}
	return nil
}

// Load reads the ledgers described by opts. It only returns an error for
// failures that prevent searching at all; roles that cannot be found are
// reported by Sources.Require.
func Load(ctx context.Context, opts Options) (*Sources, error) {
	log := logger.FromContext(ctx)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	src := &Sources{searched: describeSearch(opts.WorkbookPath, dir)}

	if opts.WorkbookPath != "" {
		if _, err := os.Stat(opts.WorkbookPath); err != nil {
			log.Warn().Str("workbook", opts.WorkbookPath).Err(err).Msg("Workbook not available, falling back to delimited files")
		} else if tables, err := ReadWorkbook(opts.WorkbookPath); err != nil {
			log.Warn().Str("workbook", opts.WorkbookPath).Err(err).Msg("Workbook unreadable, falling back to delimited files")
		} else {
			for role, t := range tables {
				src.set(role, t)
			}
			log.Info().Str("workbook", opts.WorkbookPath).Msg("Loaded ledgers from workbook")
			return src, nil
		}
	}

	candidates, err := Discover(dir)
	if err != nil {
		return nil, err
	}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.Ambiguous {
			log.Warn().Str("file", c.Name).Msg("File name matches both ledger roles, ignoring")
			continue
		}
		if c.Role == "" {
			log.Debug().Str("file", c.Name).Msg("File name matches no ledger role, ignoring")
			continue
		}
		if src.Get(c.Role) != nil {
			log.Warn().Str("file", c.Name).Str("role", string(c.Role)).Msg("Ledger role already assigned, ignoring file")
			continue
		}
		table, err := ReadDelimited(c.Path, c.Delimiter, c.Role)
		if err != nil {
			log.Warn().Str("file", c.Name).Err(err).Msg("Skipping unreadable ledger file")
			continue
		}
		src.set(c.Role, table)
		log.Info().Str("file", c.Name).Str("role", string(c.Role)).Int("rows", len(table.Rows)).Msg("Loaded ledger file")
	}

	return src, nil
}

func describeSearch(workbook, dir string) string {
	var parts []string
	if workbook != "" {
		parts = append(parts, fmt.Sprintf("workbook %s", workbook))
	}
	parts = append(parts, fmt.Sprintf("directory %s", dir))
	return strings.Join(parts, ", ")
}
