package store

import (
	"context"
	"errors"
	"testing"

	"github.com/lvoinea/stuffkeeper/internal/db"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "alice@example.com", "digest", `{"theme":"dark"}`)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("expected email 'alice@example.com', got %q", user.Email)
	}
	if !user.IsActive {
		t.Error("expected new user to be active")
	}
	if user.Settings != `{"theme":"dark"}` {
		t.Errorf("unexpected settings: %q", user.Settings)
	}

	byEmail, err := GetUserByEmail(ctx, database, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("expected id %d, got %d", user.ID, byEmail.ID)
	}
}

func TestCreateUserDefaultsSettings(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "bob@example.com", "digest", "")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Settings != "{}" {
		t.Errorf("expected empty settings blob '{}', got %q", user.Settings)
	}
}

func TestDuplicateEmailConflict(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, database, "alice@example.com", "digest", ""); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	_, err := CreateUser(ctx, database, "alice@example.com", "digest", "")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate email, got %v", err)
	}
}

func TestGetUnknownUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := GetUser(ctx, database, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := GetUserByEmail(ctx, database, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUserPasswordAndSettings(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice@example.com", "old-digest", "")

	if err := UpdateUserPassword(ctx, database, user.ID, "new-digest"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}
	if err := UpdateUserSettings(ctx, database, user.ID, `{"lang":"nl"}`); err != nil {
		t.Fatalf("UpdateUserSettings: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.HashedPassword != "new-digest" {
		t.Errorf("expected updated digest, got %q", got.HashedPassword)
	}
	if got.Settings != `{"lang":"nl"}` {
		t.Errorf("expected updated settings, got %q", got.Settings)
	}
}
