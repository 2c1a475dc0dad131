package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Open connects to a Turso/libSQL database and makes sure the gift tables exist.
func Open(ctx context.Context, dbURL, authToken string) (*sql.DB, error) {
	dsn, err := dataSourceName(dbURL, authToken)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, err
	}

	if err = conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	if err = CreateTables(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func dataSourceName(dbURL, authToken string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("invalid database url: %w", err)
	}
	if authToken != "" {
		q := u.Query()
		q.Set("authToken", authToken)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// CreateTables mirrors the spreadsheet layout: one table for the header, one for rows.
// Rows carry a version used for conditional updates.
func CreateTables(ctx context.Context, conn *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sheet_columns (
			position INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS sheet_rows (
			number INTEGER PRIMARY KEY,
			version INTEGER NOT NULL DEFAULT 1,
			data TEXT NOT NULL DEFAULT '{}',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, q := range queries {
		if _, err := conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("creating tables: %w", err)
		}
	}
	return nil
}
