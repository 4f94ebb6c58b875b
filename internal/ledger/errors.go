package ledger

import "fmt"

// MissingInputError reports that no source supplied the given ledger role.
// It aborts the run.
type MissingInputError struct {
	Role Role
	// Searched describes where the loader looked, for diagnostics.
	Searched string
}

func (e *MissingInputError) Error() string {
	if e.Searched == "" {
		return fmt.Sprintf("missing input: no %s ledger found", e.Role)
	}
	return fmt.Sprintf("missing input: no %s ledger found in %s", e.Role, e.Searched)
}

// SerializationError reports that the output artifact could not be written.
// No partial file is left at Path when it is returned.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("write output %q: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// RowCoercionWarning records a cell that could not be parsed during cleaning.
// The row is dropped (year) or the field zeroed (monetary columns); processing
// continues. Row is the 1-based data row number, excluding the header.
type RowCoercionWarning struct {
	Role    Role
	Row     int
	Column  string
	Value   string
	Dropped bool
}

func (w RowCoercionWarning) Error() string {
	action := "zeroed"
	if w.Dropped {
		action = "row dropped"
	}
	return fmt.Sprintf("%s row %d: cannot parse %s %q (%s)", w.Role, w.Row, w.Column, w.Value, action)
}
