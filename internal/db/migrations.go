package db

import (
	"fmt"
)

// Migration is one ordered schema change.
type Migration struct {
	Name  string
	UpSQL string
}

// migrations are applied in order; applied names are recorded in the
// migrations table and skipped on later runs.
var migrations = []Migration{
	{
		Name: "001_ingest_stats",
		UpSQL: `
			CREATE TABLE IF NOT EXISTS ingest_stats (
				id SERIAL PRIMARY KEY,
				captured_at TIMESTAMPTZ NOT NULL,
				stats JSONB NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_ingest_stats_captured_at
				ON ingest_stats (captured_at);
		`,
	},
}

// Migrate applies pending migrations.
func (c *Client) Migrate() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := c.db.Query(`SELECT name FROM migrations`)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration name: %w", err)
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate migrations: %w", err)
	}
	rows.Close()

	for _, m := range migrations {
		if applied[m.Name] {
			continue
		}
		tx, err := c.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(m.UpSQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(`INSERT INTO migrations (name) VALUES ($1)`, m.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.Name, err)
		}
	}
	return nil
}
