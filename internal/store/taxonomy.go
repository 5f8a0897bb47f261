package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lvoinea/stuffkeeper/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the get-or-create
// helpers can run inside an item's transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// getOrCreate resolves a tag or location by exact (owner, name) match,
// inserting a new row if absent. A racing duplicate insert is absorbed by
// the UNIQUE(owner_id, name) index and resolved by the re-SELECT.
func getOrCreate(ctx context.Context, q querier, table string, ownerID int64, name string) (int64, error) {
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO `+table+` (owner_id, name) VALUES (?, ?)`,
		ownerID, name,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting into %s: %w", table, err)
	}

	var id int64
	err = q.QueryRowContext(ctx,
		`SELECT id FROM `+table+` WHERE owner_id = ? AND name = ?`,
		ownerID, name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("resolving %s %q: %w", table, name, err)
	}
	return id, nil
}

// GetOrCreateTag resolves or creates a tag for an owner.
func GetOrCreateTag(ctx context.Context, q querier, ownerID int64, name string) (int64, error) {
	return getOrCreate(ctx, q, "tags", ownerID, name)
}

// GetOrCreateLocation resolves or creates a location for an owner.
func GetOrCreateLocation(ctx context.Context, q querier, ownerID int64, name string) (int64, error) {
	return getOrCreate(ctx, q, "locations", ownerID, name)
}

// ListTags returns all tags owned by a user.
func ListTags(ctx context.Context, q querier, ownerID int64) ([]model.Tag, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, owner_id FROM tags WHERE owner_id = ? ORDER BY name`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.OwnerID); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// ListLocations returns all locations owned by a user.
func ListLocations(ctx context.Context, q querier, ownerID int64) ([]model.Location, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, owner_id FROM locations WHERE owner_id = ? ORDER BY name`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	defer rows.Close()

	var locations []model.Location
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.OwnerID); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// rename updates a tag or location name. It fails with ErrNotFound when
// the entity does not exist for this owner, and with ErrConflict when a
// different entity of the same kind already holds the name. Renaming to
// the current name is not a conflict.
func rename(ctx context.Context, db *sql.DB, table string, ownerID, id int64, name string) error {
	var existing int64
	err := db.QueryRowContext(ctx,
		`SELECT id FROM `+table+` WHERE owner_id = ? AND id = ?`, ownerID, id,
	).Scan(&existing)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("getting %s: %w", table, err)
	}

	var conflicting int64
	err = db.QueryRowContext(ctx,
		`SELECT id FROM `+table+` WHERE owner_id = ? AND name = ? AND id != ?`,
		ownerID, name, id,
	).Scan(&conflicting)
	if err == nil {
		return fmt.Errorf("%s name %q: %w", table, name, ErrConflict)
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("checking %s name: %w", table, err)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE `+table+` SET name = ? WHERE owner_id = ? AND id = ?`,
		name, ownerID, id,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%s name %q: %w", table, name, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("renaming %s: %w", table, err)
	}
	return nil
}

// UpdateTag renames a tag and returns the updated row.
func UpdateTag(ctx context.Context, db *sql.DB, ownerID, tagID int64, name string) (*model.Tag, error) {
	if err := rename(ctx, db, "tags", ownerID, tagID, name); err != nil {
		return nil, err
	}
	return &model.Tag{ID: tagID, Name: name, OwnerID: ownerID}, nil
}

// UpdateLocation renames a location and returns the updated row.
func UpdateLocation(ctx context.Context, db *sql.DB, ownerID, locationID int64, name string) (*model.Location, error) {
	if err := rename(ctx, db, "locations", ownerID, locationID, name); err != nil {
		return nil, err
	}
	return &model.Location{ID: locationID, Name: name, OwnerID: ownerID}, nil
}
