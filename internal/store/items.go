package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lvoinea/stuffkeeper/internal/model"
)

// ItemCreate holds the fields accepted when creating an item. Location
// and tag entries are names; missing ones are created for the owner on
// the fly.
type ItemCreate struct {
	Name           string
	Description    string
	Code           string
	Quantity       int
	Cost           *float64
	ExpirationDate *model.Date
	Photos         *model.Photos
	Locations      []string
	Tags           []string
}

// ItemPatch describes a partial item update. Scalar fields use the
// tri-state model.Field: an omitted key leaves the column untouched, an
// explicit null clears it where the schema allows. A non-nil Locations
// or Tags slice replaces the full association set (an empty slice clears
// it); nil leaves the existing associations alone.
type ItemPatch struct {
	Name           model.Field[string]
	Description    model.Field[string]
	Code           model.Field[string]
	Quantity       model.Field[int]
	Cost           model.Field[float64]
	ExpirationDate model.Field[model.Date]
	RemovalDate    model.Field[model.Date]
	IsActive       model.Field[bool]
	IsBookmarked   model.Field[bool]
	IsSilenced     model.Field[bool]
	Photos         model.Field[model.Photos]
	Locations      []string
	Tags           []string
}

// CreateItem creates an item for a user, resolving location and tag
// associations in the same transaction.
func CreateItem(ctx context.Context, db *sql.DB, ownerID int64, in ItemCreate) (*model.Item, error) {
	photos, err := model.EncodePhotos(in.Photos)
	if err != nil {
		return nil, err
	}

	quantity := in.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO items (owner_id, name, description, code, quantity, cost, photos,
		                    addition_date, expiration_date, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		ownerID, in.Name, in.Description, in.Code, quantity, in.Cost,
		nullString(photos), model.Today(), nullDate(in.ExpirationDate),
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	itemID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	if err := attach(ctx, tx, "item_locations", "location_id", "locations", ownerID, itemID, in.Locations); err != nil {
		return nil, err
	}
	if err := attach(ctx, tx, "item_tags", "tag_id", "tags", ownerID, itemID, in.Tags); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item: %w", err)
	}

	return GetItem(ctx, db, ownerID, itemID)
}

// GetItem returns an item scoped to its owner. Ownership is enforced in
// the query predicate so a foreign item is indistinguishable from a
// missing one.
func GetItem(ctx context.Context, db *sql.DB, ownerID, itemID int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, description, code, quantity, cost, photos,
		        addition_date, expiration_date, removal_date,
		        is_active, is_bookmarked, is_silenced
		 FROM items WHERE owner_id = ? AND id = ?`, ownerID, itemID,
	)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	if err := loadAssociations(ctx, db, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems returns a page of a user's items, most recently added first
// (ties broken by descending id).
func ListItems(ctx context.Context, db *sql.DB, ownerID int64, skip, limit int) ([]model.Item, error) {
	if limit <= 0 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, owner_id, name, description, code, quantity, cost, photos,
		        addition_date, expiration_date, removal_date,
		        is_active, is_bookmarked, is_silenced
		 FROM items WHERE owner_id = ?
		 ORDER BY addition_date DESC, id DESC
		 LIMIT ? OFFSET ?`, ownerID, limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		if err := loadAssociations(ctx, db, &items[i]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// UpdateItem applies a partial update to an item. Only fields present in
// the patch are touched; a non-nil location or tag list replaces the
// full association set. Fails with ErrNotFound when the item does not
// exist for this owner.
func UpdateItem(ctx context.Context, db *sql.DB, ownerID, itemID int64, patch ItemPatch) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM items WHERE owner_id = ? AND id = ?`, ownerID, itemID,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	sets, args := patchColumns(patch)
	if len(sets) > 0 {
		args = append(args, ownerID, itemID)
		_, err = tx.ExecContext(ctx,
			`UPDATE items SET `+strings.Join(sets, ", ")+` WHERE owner_id = ? AND id = ?`,
			args...,
		)
		if err != nil {
			return nil, fmt.Errorf("updating item: %w", err)
		}
	}

	if patch.Locations != nil {
		if err := replace(ctx, tx, "item_locations", "location_id", "locations", ownerID, itemID, patch.Locations); err != nil {
			return nil, err
		}
	}
	if patch.Tags != nil {
		if err := replace(ctx, tx, "item_tags", "tag_id", "tags", ownerID, itemID, patch.Tags); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item update: %w", err)
	}

	return GetItem(ctx, db, ownerID, itemID)
}

// DeleteItem hard-deletes an item and its association rows. Photo files
// on disk are intentionally left behind. Fails with ErrNotFound when the
// item does not exist for this owner.
func DeleteItem(ctx context.Context, db *sql.DB, ownerID, itemID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM items WHERE owner_id = ? AND id = ?`, ownerID, itemID,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("getting item: %w", err)
	}

	for _, table := range []string{"item_locations", "item_tags"} {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE item_id = ?`, itemID,
		); err != nil {
			return fmt.Errorf("deleting %s rows: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM items WHERE owner_id = ? AND id = ?`, ownerID, itemID,
	); err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item delete: %w", err)
	}
	return nil
}

// patchColumns translates present patch fields into SET clauses.
// Non-nullable columns ignore explicit nulls; nullable columns are
// cleared by them.
func patchColumns(p ItemPatch) (sets []string, args []any) {
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if p.Name.Present && p.Name.Valid {
		set("name", p.Name.Value)
	}
	if p.Description.Present {
		set("description", validOrNil(p.Description.Valid, p.Description.Value))
	}
	if p.Code.Present && p.Code.Valid {
		set("code", p.Code.Value)
	}
	if p.Quantity.Present && p.Quantity.Valid {
		set("quantity", p.Quantity.Value)
	}
	if p.Cost.Present {
		set("cost", validOrNil(p.Cost.Valid, p.Cost.Value))
	}
	if p.ExpirationDate.Present {
		set("expiration_date", validOrNil(p.ExpirationDate.Valid, p.ExpirationDate.Value.String()))
	}
	if p.RemovalDate.Present {
		set("removal_date", validOrNil(p.RemovalDate.Valid, p.RemovalDate.Value.String()))
	}
	if p.IsActive.Present && p.IsActive.Valid {
		set("is_active", p.IsActive.Value)
	}
	if p.IsBookmarked.Present && p.IsBookmarked.Valid {
		set("is_bookmarked", p.IsBookmarked.Value)
	}
	if p.IsSilenced.Present && p.IsSilenced.Valid {
		set("is_silenced", p.IsSilenced.Value)
	}
	if p.Photos.Present {
		if p.Photos.Valid {
			// Encoding a marshalable struct cannot fail.
			raw, _ := model.EncodePhotos(&p.Photos.Value)
			set("photos", raw)
		} else {
			set("photos", nil)
		}
	}
	return sets, args
}

// attach resolves each name via get-or-create and links it to the item.
func attach(ctx context.Context, tx *sql.Tx, joinTable, joinColumn, entityTable string, ownerID, itemID int64, names []string) error {
	for _, name := range names {
		entityID, err := getOrCreate(ctx, tx, entityTable, ownerID, name)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO `+joinTable+` (item_id, `+joinColumn+`) VALUES (?, ?)`,
			itemID, entityID,
		)
		if err != nil {
			return fmt.Errorf("attaching to %s: %w", joinTable, err)
		}
	}
	return nil
}

// replace clears the item's association rows and re-attaches the desired
// set. Called with an empty list it just clears.
func replace(ctx context.Context, tx *sql.Tx, joinTable, joinColumn, entityTable string, ownerID, itemID int64, names []string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM `+joinTable+` WHERE item_id = ?`, itemID,
	); err != nil {
		return fmt.Errorf("clearing %s: %w", joinTable, err)
	}
	return attach(ctx, tx, joinTable, joinColumn, entityTable, ownerID, itemID, names)
}

// loadAssociations fills in the item's location and tag lists, always as
// non-nil slices.
func loadAssociations(ctx context.Context, db *sql.DB, item *model.Item) error {
	locations := []model.Location{}
	rows, err := db.QueryContext(ctx,
		`SELECT l.id, l.name, l.owner_id
		 FROM locations l
		 JOIN item_locations il ON il.location_id = l.id
		 WHERE il.item_id = ?
		 ORDER BY l.name`, item.ID,
	)
	if err != nil {
		return fmt.Errorf("loading item locations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.OwnerID); err != nil {
			return fmt.Errorf("scanning item location: %w", err)
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	item.Locations = locations

	tags := []model.Tag{}
	rows, err = db.QueryContext(ctx,
		`SELECT t.id, t.name, t.owner_id
		 FROM tags t
		 JOIN item_tags it ON it.tag_id = t.id
		 WHERE it.item_id = ?
		 ORDER BY t.name`, item.ID,
	)
	if err != nil {
		return fmt.Errorf("loading item tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.OwnerID); err != nil {
			return fmt.Errorf("scanning item tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	item.Tags = tags
	return nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*model.Item, error) {
	item := &model.Item{}
	var description, code, photos, expiration, removal sql.NullString
	var cost sql.NullFloat64

	err := s.Scan(&item.ID, &item.OwnerID, &item.Name, &description, &code,
		&item.Quantity, &cost, &photos,
		&item.AdditionDate, &expiration, &removal,
		&item.IsActive, &item.IsBookmarked, &item.IsSilenced)
	if err != nil {
		return nil, err
	}

	item.Description = description.String
	item.Code = code.String
	if cost.Valid {
		item.Cost = &cost.Float64
	}
	if item.Photos, err = model.DecodePhotos(photos.String); err != nil {
		return nil, err
	}
	if item.ExpirationDate, err = scanDate(expiration); err != nil {
		return nil, err
	}
	if item.RemovalDate, err = scanDate(removal); err != nil {
		return nil, err
	}
	return item, nil
}

func scanDate(s sql.NullString) (*model.Date, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := model.ParseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func nullDate(d *model.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func validOrNil(valid bool, v any) any {
	if !valid {
		return nil
	}
	return v
}
