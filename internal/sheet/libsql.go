package sheet

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SQLTable stores the sheet in sheet_columns/sheet_rows. Save is a compare-and-swap on
// the row version, so concurrent writers across instances cannot overwrite each other.
type SQLTable struct {
	db *sql.DB
}

func NewSQLTable(db *sql.DB) *SQLTable {
	return &SQLTable{db: db}
}

// EnsureHeader writes the column list when the table has none yet.
func (t *SQLTable) EnsureHeader(ctx context.Context, cols []string) error {
	var n int
	if err := t.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sheet_columns").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for i, c := range cols {
		if _, err := tx.ExecContext(ctx, "INSERT INTO sheet_columns (position, name) VALUES (?, ?)", i, c); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Insert appends a row and returns its sheet number.
func (t *SQLTable) Insert(ctx context.Context, values map[string]string) (int, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return 0, err
	}

	var number int
	err = t.db.QueryRowContext(ctx,
		"INSERT INTO sheet_rows (number, data) SELECT COALESCE(MAX(number), 1) + 1, ? FROM sheet_rows RETURNING number",
		string(data)).Scan(&number)
	if err != nil {
		return 0, err
	}
	return number, nil
}

// SeedIfEmpty inserts rows when the table has no data rows yet and reports how many
// were written.
func (t *SQLTable) SeedIfEmpty(ctx context.Context, rows []map[string]string) (int, error) {
	var n int
	if err := t.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sheet_rows").Scan(&n); err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	for i, values := range rows {
		if _, err := t.Insert(ctx, values); err != nil {
			return i, fmt.Errorf("seed row %d: %w", i+1, err)
		}
	}
	return len(rows), nil
}

func (t *SQLTable) Header(ctx context.Context) (Header, error) {
	rows, err := t.db.QueryContext(ctx, "SELECT name FROM sheet_columns ORDER BY position ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var h Header
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		h = append(h, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(h) == 0 {
		return nil, ErrNoHeader
	}
	return h, nil
}

func (t *SQLTable) Rows(ctx context.Context) ([]*Row, error) {
	header, err := t.Header(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := t.db.QueryContext(ctx, "SELECT number, version, data FROM sheet_rows ORDER BY number ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Row
	for rows.Next() {
		var (
			number  int
			version int64
			data    string
		)
		if err := rows.Scan(&number, &version, &data); err != nil {
			return nil, err
		}

		stored := map[string]string{}
		if err := json.Unmarshal([]byte(data), &stored); err != nil {
			return nil, fmt.Errorf("row %d: %w", number, err)
		}

		values := make(map[string]string, len(header))
		for _, col := range header {
			values[col] = stored[col]
		}
		out = append(out, NewRow(number, version, header, values))
	}
	return out, rows.Err()
}

func (t *SQLTable) Save(ctx context.Context, row *Row) error {
	data, err := json.Marshal(row.Values())
	if err != nil {
		return err
	}

	res, err := t.db.ExecContext(ctx,
		`UPDATE sheet_rows
		    SET data = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		  WHERE number = ? AND version = ?`,
		string(data), row.Number(), row.Version())
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// Distinguish a vanished row from a concurrent update.
	var exists int
	err = t.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sheet_rows WHERE number = ?", row.Number()).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("row %d: %w", row.Number(), ErrRowNotFound)
	}
	return fmt.Errorf("row %d: %w", row.Number(), ErrConflict)
}
