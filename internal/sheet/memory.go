package sheet

import (
	"context"
	"fmt"
	"sync"
)

// MemoryTable keeps rows in process. Every save bumps the row version.
type MemoryTable struct {
	mu       sync.Mutex
	header   Header
	rows     [][]string
	versions []int64

	// FailReads makes Header and Rows fail, for exercising degraded paths.
	FailReads error
}

// NewMemoryTable copies header and rows.
func NewMemoryTable(header Header, rows ...[]string) *MemoryTable {
	t := &MemoryTable{header: append(Header(nil), header...)}
	for _, r := range rows {
		t.rows = append(t.rows, append([]string(nil), r...))
		t.versions = append(t.versions, 1)
	}
	return t
}

// Append adds a data row laid out along the header.
func (t *MemoryTable) Append(values map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cells := make([]string, len(t.header))
	for i, col := range t.header {
		cells[i] = values[col]
	}
	t.rows = append(t.rows, cells)
	t.versions = append(t.versions, 1)
}

func (t *MemoryTable) Header(ctx context.Context) (Header, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.FailReads != nil {
		return nil, t.FailReads
	}
	if len(t.header) == 0 {
		return nil, ErrNoHeader
	}
	return append(Header(nil), t.header...), nil
}

func (t *MemoryTable) Rows(ctx context.Context) ([]*Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.FailReads != nil {
		return nil, t.FailReads
	}
	header := append(Header(nil), t.header...)
	out := make([]*Row, 0, len(t.rows))
	for i, cells := range t.rows {
		out = append(out, NewRow(i+2, t.versions[i], header, FromCells(header, cells)))
	}
	return out, nil
}

func (t *MemoryTable) Save(ctx context.Context, row *Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := row.Number() - 2
	if idx < 0 || idx >= len(t.rows) {
		return fmt.Errorf("row %d: %w", row.Number(), ErrRowNotFound)
	}
	if t.versions[idx] != row.Version() {
		return fmt.Errorf("row %d: %w", row.Number(), ErrConflict)
	}

	cells := make([]string, len(t.header))
	values := row.Values()
	for i, col := range t.header {
		cells[i] = values[col]
	}
	t.rows[idx] = cells
	t.versions[idx]++
	return nil
}

// Cell reads one stored value, for tests and debugging.
func (t *MemoryTable) Cell(number int, col string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := number - 2
	ci := t.header.Index(col)
	if idx < 0 || idx >= len(t.rows) || ci < 0 || ci >= len(t.rows[idx]) {
		return ""
	}
	return t.rows[idx][ci]
}
