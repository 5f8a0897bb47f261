package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Connection pragmas. WAL keeps item listings readable while an item
// transaction or a photo-heavy update holds the write lock; the busy
// timeout makes concurrent writers queue instead of failing; foreign
// keys guard the users -> items/tags/locations ownership chain.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
	"PRAGMA synchronous=NORMAL",
}

// Open opens the SQLite database backing the inventory and applies the
// connection pragmas.
func Open(path string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, pragma := range pragmas {
		if _, err := database.Exec(pragma); err != nil {
			database.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	return database, nil
}
