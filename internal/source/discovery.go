package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dvloznov/ledgerconv/internal/ledger"
)

// Candidate is a delimited file found during discovery.
type Candidate struct {
	Path      string
	Name      string
	Delimiter rune
	// Role is empty when the name matches no role or both roles.
	Role      ledger.Role
	Ambiguous bool
}

var roleMarkers = map[ledger.Role][]string{
	ledger.RoleExpenditure: {"exp", "支出"},
	ledger.RoleRevenue:     {"rev", "収入"},
}

// ClassifyName assigns a ledger role from a file name. ok is false when the
// name matches no marker; ambiguous is true when it matches both roles.
func ClassifyName(name string) (role ledger.Role, ambiguous bool, ok bool) {
	lower := strings.ToLower(name)
	var matched []ledger.Role
	for _, r := range ledger.Roles {
		for _, marker := range roleMarkers[r] {
			if strings.Contains(lower, marker) {
				matched = append(matched, r)
				break
			}
		}
	}
	switch len(matched) {
	case 0:
		return "", false, false
	case 1:
		return matched[0], false, true
	default:
		return "", true, false
	}
}

// delimiterFor returns the field separator for a supported extension.
func delimiterFor(name string) (rune, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tsv":
		return '\t', true
	case ".csv":
		return ',', true
	}
	return 0, false
}

// Discover lists the *.tsv and *.csv files in dir in ascending name order.
// A missing directory yields no candidates.
func Discover(dir string) ([]Candidate, error) {
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var out []Candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		delim, ok := delimiterFor(name)
		if !ok {
			continue
		}
		role, ambiguous, _ := ClassifyName(name)
		out = append(out, Candidate{
			Path:      filepath.Join(dir, name),
			Name:      name,
			Delimiter: delim,
			Role:      role,
			Ambiguous: ambiguous,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
