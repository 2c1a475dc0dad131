// Package sheet is the row store the gift list lives in: a header row plus data rows
// addressed by column name. Backends are a Google spreadsheet, a libSQL database and an
// in-memory table.
package sheet

import (
	"context"
	"strings"
)

// Table is a spreadsheet-like row store.
type Table interface {
	Header(ctx context.Context) (Header, error)
	Rows(ctx context.Context) ([]*Row, error)
	// Save persists the row's changes. It fails with ErrConflict when the stored row no
	// longer matches what was read.
	Save(ctx context.Context, row *Row) error
}

// Header is the ordered list of column names.
type Header []string

// Has reports whether the column exists.
func (h Header) Has(col string) bool {
	return h.Index(col) >= 0
}

// Index returns the position of the column or -1.
func (h Header) Index(col string) int {
	for i, c := range h {
		if strings.TrimSpace(c) == col {
			return i
		}
	}
	return -1
}

// Row is one data row. Values set on a column missing from the header are dropped on save.
type Row struct {
	number  int
	version int64
	header  Header
	values  map[string]string
	read    map[string]string
}

// NewRow builds a row as read from a store.
func NewRow(number int, version int64, header Header, values map[string]string) *Row {
	r := &Row{
		number:  number,
		version: version,
		header:  header,
		values:  make(map[string]string, len(values)),
		read:    make(map[string]string, len(values)),
	}
	for k, v := range values {
		r.values[k] = v
		r.read[k] = v
	}
	return r
}

// Number is the 1-based sheet row number (the header is row 1).
func (r *Row) Number() int { return r.number }

// Version is the store's change token at read time.
func (r *Row) Version() int64 { return r.version }

// Get returns the trimmed cell value or "".
func (r *Row) Get(col string) string {
	return strings.TrimSpace(r.values[col])
}

// Set changes a cell in memory.
func (r *Row) Set(col, value string) {
	r.values[col] = value
}

// Changed reports whether any cell differs from what was read.
func (r *Row) Changed() bool {
	for k, v := range r.values {
		if r.read[k] != v {
			return true
		}
	}
	return false
}

// Cells returns the row laid out along the header.
func (r *Row) Cells() []string {
	out := make([]string, len(r.header))
	for i, col := range r.header {
		out[i] = r.values[strings.TrimSpace(col)]
	}
	return out
}

// Snapshot returns the values as originally read, laid out along the header.
func (r *Row) Snapshot() []string {
	out := make([]string, len(r.header))
	for i, col := range r.header {
		out[i] = r.read[strings.TrimSpace(col)]
	}
	return out
}

// Values returns a copy of the current values keyed by column.
func (r *Row) Values() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// FromCells maps a raw row onto the header. Short rows are padded with "".
func FromCells(header Header, cells []string) map[string]string {
	values := make(map[string]string, len(header))
	for i, col := range header {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		if i < len(cells) {
			values[col] = cells[i]
		} else {
			values[col] = ""
		}
	}
	return values
}
