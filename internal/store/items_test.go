package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/lvoinea/stuffkeeper/internal/db"
	"github.com/lvoinea/stuffkeeper/internal/model"
)

func newTestUser(t *testing.T, database *sql.DB, email string) int64 {
	t.Helper()
	user, err := CreateUser(context.Background(), database, email, "digest", "")
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return user.ID
}

func tagNames(item *model.Item) []string {
	names := make([]string, 0, len(item.Tags))
	for _, tag := range item.Tags {
		names = append(names, tag.Name)
	}
	return names
}

func TestCreateItemWithAssociations(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, database, "alice@example.com")

	item, err := CreateItem(ctx, database, owner, ItemCreate{
		Name:        "Cordless drill",
		Description: "18V",
		Locations:   []string{"garage"},
		Tags:        []string{"tools", "power"},
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	if !item.IsActive {
		t.Error("expected new item to be active")
	}
	if item.Quantity != 1 {
		t.Errorf("expected default quantity 1, got %d", item.Quantity)
	}
	if item.AdditionDate.String() != model.Today().String() {
		t.Errorf("expected addition date today, got %s", item.AdditionDate)
	}
	if len(item.Locations) != 1 || item.Locations[0].Name != "garage" {
		t.Errorf("unexpected locations: %v", item.Locations)
	}
	if len(item.Tags) != 2 {
		t.Errorf("expected 2 tags, got %v", tagNames(item))
	}

	// The lazily created entities are visible in the owner's lists.
	tags, _ := ListTags(ctx, database, owner)
	if len(tags) != 2 {
		t.Errorf("expected 2 tags for owner, got %d", len(tags))
	}
}

func TestCreateItemReusesExistingTags(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, database, "alice@example.com")

	first, _ := CreateItem(ctx, database, owner, ItemCreate{Name: "Drill", Tags: []string{"tools"}})
	second, _ := CreateItem(ctx, database, owner, ItemCreate{Name: "Hammer", Tags: []string{"tools"}})

	if first.Tags[0].ID != second.Tags[0].ID {
		t.Errorf("expected both items to share tag id, got %d and %d", first.Tags[0].ID, second.Tags[0].ID)
	}
}

func TestGetItemOwnershipScoping(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	alice := newTestUser(t, database, "alice@example.com")
	bob := newTestUser(t, database, "bob@example.com")

	item, _ := CreateItem(ctx, database, alice, ItemCreate{Name: "Drill"})

	if _, err := GetItem(ctx, database, alice, item.ID); err != nil {
		t.Fatalf("owner GetItem: %v", err)
	}
	// Another user's item must be indistinguishable from a missing one.
	if _, err := GetItem(ctx, database, bob, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign item, got %v", err)
	}
}

func TestListItemsPagingAndOrder(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, database, "alice@example.com")

	for _, name := range []string{"first", "second", "third"} {
		if _, err := CreateItem(ctx, database, owner, ItemCreate{Name: name}); err != nil {
			t.Fatalf("CreateItem %s: %v", name, err)
		}
	}

	items, err := ListItems(ctx, database, owner, 0, 0)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	// Same addition date, so descending id breaks the tie: newest first.
	if items[0].Name != "third" || items[2].Name != "first" {
		t.Errorf("expected newest-first order, got %s .. %s", items[0].Name, items[2].Name)
	}

	page, err := ListItems(ctx, database, owner, 1, 1)
	if err != nil {
		t.Fatalf("ListItems page: %v", err)
	}
	if len(page) != 1 || page[0].Name != "second" {
		t.Errorf("expected page of [second], got %v", page)
	}
}

func TestUpdateItemReplacesTagSet(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, database, "alice@example.com")

	item, _ := CreateItem(ctx, database, owner, ItemCreate{Name: "Drill", Tags: []string{"tools", "power"}})

	updated, err := UpdateItem(ctx, database, owner, item.ID, ItemPatch{
		Tags: []string{"power", "loaner"},
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	got := tagNames(updated)
	if len(got) != 2 || got[0] != "loaner" || got[1] != "power" {
		t.Errorf("expected full replacement [loaner power], got %v", got)
	}
}

func TestUpdateItemEmptyListClearsAssociations(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, database, "alice@example.com")

	item, _ := CreateItem(ctx, database, owner, ItemCreate{Name: "Drill", Tags: []string{"tools"}})

	updated, err := UpdateItem(ctx, database, owner, item.ID, ItemPatch{Tags: []string{}})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if len(updated.Tags) != 0 {
		t.Errorf("expected cleared tag set, got %v", tagNames(updated))
	}
}

func TestUpdateItemNilListLeavesAssociations(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, database, "alice@example.com")

	item, _ := CreateItem(ctx, database, owner, ItemCreate{Name: "Drill", Tags: []string{"tools"}})

	updated, err := UpdateItem(ctx, database, owner, item.ID, ItemPatch{
		Name: model.Set("Impact drill"),
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if updated.Name != "Impact drill" {
		t.Errorf("expected renamed item, got %q", updated.Name)
	}
	if len(updated.Tags) != 1 || updated.Tags[0].Name != "tools" {
		t.Errorf("expected untouched tag set, got %v", tagNames(updated))
	}
}

func TestUpdateItemPartialFields(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, database, "alice@example.com")

	expiry := model.NewDate(2025, 6, 1)
	item, _ := CreateItem(ctx, database, owner, ItemCreate{
		Name:           "Milk",
		Description:    "Whole",
		Quantity:       2,
		ExpirationDate: &expiry,
	})

	// Only quantity is patched; everything else stays.
	updated, err := UpdateItem(ctx, database, owner, item.ID, ItemPatch{
		Quantity: model.Set(5),
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if updated.Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", updated.Quantity)
	}
	if updated.Description != "Whole" {
		t.Errorf("expected untouched description, got %q", updated.Description)
	}
	if updated.ExpirationDate == nil || updated.ExpirationDate.String() != "2025-06-01" {
		t.Errorf("expected untouched expiration date, got %v", updated.ExpirationDate)
	}

	// Explicit null clears the nullable expiration date.
	updated, err = UpdateItem(ctx, database, owner, item.ID, ItemPatch{
		ExpirationDate: model.Null[model.Date](),
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if updated.ExpirationDate != nil {
		t.Errorf("expected cleared expiration date, got %v", updated.ExpirationDate)
	}
}

func TestUpdateItemDeactivation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, database, "alice@example.com")

	item, _ := CreateItem(ctx, database, owner, ItemCreate{Name: "Drill"})

	removed := model.Today()
	updated, err := UpdateItem(ctx, database, owner, item.ID, ItemPatch{
		IsActive:    model.Set(false),
		RemovalDate: model.Set(removed),
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if updated.IsActive {
		t.Error("expected deactivated item")
	}
	if updated.RemovalDate == nil || updated.RemovalDate.String() != removed.String() {
		t.Errorf("expected removal date %s, got %v", removed, updated.RemovalDate)
	}

	// Reactivation is the only other transition.
	updated, err = UpdateItem(ctx, database, owner, item.ID, ItemPatch{
		IsActive:    model.Set(true),
		RemovalDate: model.Null[model.Date](),
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if !updated.IsActive || updated.RemovalDate != nil {
		t.Errorf("expected reactivated item, got active=%v removal=%v", updated.IsActive, updated.RemovalDate)
	}
}

func TestUpdateItemPhotosColumn(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, database, "alice@example.com")

	item, _ := CreateItem(ctx, database, owner, ItemCreate{
		Name:   "Drill",
		Photos: &model.Photos{Sources: []string{"2024-07-1690000000.jpeg"}},
	})
	if item.Photos == nil || len(item.Photos.Sources) != 1 {
		t.Fatalf("expected persisted photos, got %+v", item.Photos)
	}

	updated, err := UpdateItem(ctx, database, owner, item.ID, ItemPatch{
		Photos: model.Set(model.Photos{Sources: []string{}}),
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if updated.Photos == nil || len(updated.Photos.Sources) != 0 {
		t.Errorf("expected emptied photo sources, got %+v", updated.Photos)
	}
}

func TestUpdateMissingItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, database, "alice@example.com")

	_, err := UpdateItem(ctx, database, owner, 42, ItemPatch{Name: model.Set("x")})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, database, "alice@example.com")

	item, _ := CreateItem(ctx, database, owner, ItemCreate{Name: "Drill", Tags: []string{"tools"}})

	if err := DeleteItem(ctx, database, owner, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if _, err := GetItem(ctx, database, owner, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Association rows are gone, the tag entity itself survives.
	var joinRows int
	database.QueryRowContext(ctx, `SELECT COUNT(*) FROM item_tags`).Scan(&joinRows)
	if joinRows != 0 {
		t.Errorf("expected 0 join rows after delete, got %d", joinRows)
	}
	tags, _ := ListTags(ctx, database, owner)
	if len(tags) != 1 {
		t.Errorf("expected tag entity to survive item delete, got %d", len(tags))
	}

	// Deleting again reports not found.
	if err := DeleteItem(ctx, database, owner, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteForeignItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	alice := newTestUser(t, database, "alice@example.com")
	bob := newTestUser(t, database, "bob@example.com")

	item, _ := CreateItem(ctx, database, alice, ItemCreate{Name: "Drill"})

	if err := DeleteItem(ctx, database, bob, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign delete, got %v", err)
	}
	// Alice's item is untouched.
	if _, err := GetItem(ctx, database, alice, item.ID); err != nil {
		t.Errorf("expected item to survive foreign delete, got %v", err)
	}
}
