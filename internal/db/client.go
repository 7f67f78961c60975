package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

// Client manages the Postgres connection used for ingest statistics
// snapshots. Spots themselves are never persisted here; only aggregate
// counters survive the age window.
type Client struct {
	db *sql.DB
}

// New opens a connection and verifies it.
func New(dsn string) (*Client, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Client{db: db}, nil
}

// NewWithDB wraps an existing handle (useful for tests).
func NewWithDB(db *sql.DB) *Client {
	return &Client{db: db}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.db.Close()
}

// StoreIngestStats appends one statistics snapshot.
func (c *Client) StoreIngestStats(stats map[string]any) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	_, err = c.db.Exec(
		`INSERT INTO ingest_stats (captured_at, stats) VALUES ($1, $2)`,
		time.Now().UTC(), data,
	)
	if err != nil {
		return fmt.Errorf("failed to store ingest stats: %w", err)
	}
	return nil
}
