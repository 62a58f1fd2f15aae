// Package store provides the tabular persistence boundary for the ledger
// core: append, overwrite-by-position, delete-by-position and full scans over
// logical tables of positional string rows. Backends return rows in insertion
// order only; all filtering and sorting happens in the caller.
package store

import "errors"

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrRowOutOfRange is returned when a row index does not exist in a table.
	ErrRowOutOfRange = errors.New("row index out of range")
)

// Row is one positional row. The column layout is owned by the caller; rows
// never carry meaning on their own.
type Row []string

// Clone returns a copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// TabularStore is the storage primitive shared by every repository.
type TabularStore interface {
	// AppendRow adds a row to the end of a table, creating the table if
	// it does not exist yet.
	AppendRow(table string, row Row) error

	// ReadAll returns every row of a table in insertion order. A missing
	// table reads as empty.
	ReadAll(table string) ([]Row, error)

	// OverwriteRow replaces the row at the given position (0-based, in
	// insertion order).
	OverwriteRow(table string, index int, row Row) error

	// DeleteRow removes the row at the given position. Later rows shift up.
	DeleteRow(table string, index int) error
}
