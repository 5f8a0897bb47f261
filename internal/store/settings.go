package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// GetSigningSecret retrieves the token signing secret from the database,
// generating and storing one on first use. Concurrent first calls race on
// the INSERT OR IGNORE; the re-SELECT makes them all agree.
func GetSigningSecret(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating signing secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES ('signing_secret', ?)`,
		candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing signing secret: %w", err)
	}

	// Always read back (either our insert or the existing value).
	var secret string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'signing_secret'`,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying signing secret: %w", err)
	}

	return secret, nil
}
