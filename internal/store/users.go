package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lvoinea/stuffkeeper/internal/model"
)

// CreateUser registers a new user. Users are identified by email;
// registering an email that is already taken fails with ErrConflict.
func CreateUser(ctx context.Context, db *sql.DB, email, hashedPassword, settings string) (*model.User, error) {
	if settings == "" {
		settings = "{}"
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO users (email, hashed_password, settings, is_active, creation_date)
		 VALUES (?, ?, ?, 1, ?)`,
		email, hashedPassword, settings, model.Today(),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("user %q: %w", email, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, email, hashed_password, settings, is_active, creation_date
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.HashedPassword, &u.Settings, &u.IsActive, &u.CreationDate)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email address.
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, email, hashed_password, settings, is_active, creation_date
		 FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.HashedPassword, &u.Settings, &u.IsActive, &u.CreationDate)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %q: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// UpdateUserPassword updates a user's password digest.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, hashedPassword string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET hashed_password = ? WHERE id = ?`,
		hashedPassword, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// UpdateUserSettings replaces a user's settings blob.
func UpdateUserSettings(ctx context.Context, db *sql.DB, id int64, settings string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET settings = ? WHERE id = ?`,
		settings, id,
	)
	if err != nil {
		return fmt.Errorf("updating user settings: %w", err)
	}
	return nil
}
