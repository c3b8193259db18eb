// Package cache is a content-addressed store for compiled bundles,
// keyed by the bundle fingerprint of the input program. The driver
// consults it around Compile; compilation itself never touches it.
package cache

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS bundles (
	key     TEXT PRIMARY KEY,
	payload BLOB NOT NULL
);`

// Cache is an open compile cache.
type Cache struct {
	db *sql.DB
}

// Open creates or opens the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening compile cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing compile cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Get returns the cached payload for a key.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	var payload []byte
	err := c.db.QueryRow(`SELECT payload FROM bundles WHERE key = ?`, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// Put stores a payload, replacing any previous entry for the key.
func (c *Cache) Put(key string, payload []byte) error {
	_, err := c.db.Exec(
		`INSERT INTO bundles (key, payload) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`,
		key, payload)
	return err
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
