// Package testutil provides test utilities for the ledger: a migrated
// temp-file database, seeded accounts and a fault-injecting storage wrapper.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
	"github.com/Veraticus/tally/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a migrated SQLite database in a temp directory.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	alice := db.MustCreateUser("alice")
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Run migrations
	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Register cleanup
	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// MustCreateUser stores a user with a PlainHasher hash of "password" and the
// default categories, then returns the stored row.
func (db *TestDB) MustCreateUser(username string) *model.User {
	db.t.Helper()
	ctx := context.Background()

	hash, _ := PlainHasher{}.Hash("password")
	user := &model.User{Username: username, FullName: "Test " + username, PasswordHash: hash}
	if err := db.Storage.CreateUser(ctx, user); err != nil {
		db.t.Fatalf("failed to create user %q: %v", username, err)
	}
	for _, cat := range model.DefaultCategories(username) {
		if err := db.Storage.CreateCategory(ctx, &cat); err != nil {
			db.t.Fatalf("failed to seed category %q: %v", cat.Name, err)
		}
	}

	stored, err := db.Storage.GetUser(ctx, username)
	if err != nil {
		db.t.Fatalf("failed to reload user %q: %v", username, err)
	}
	return stored
}

// MustCreateCategory adds a spending category for owner.
func (db *TestDB) MustCreateCategory(owner, name string) model.Category {
	db.t.Helper()

	cat := model.Category{Owner: owner, Name: name, Kind: model.CategoryKindSpending}
	if err := db.Storage.CreateCategory(context.Background(), &cat); err != nil {
		db.t.Fatalf("failed to create category %q: %v", name, err)
	}
	return cat
}

// WithTransaction executes the given function within a database transaction.
// The transaction is automatically rolled back after the function completes.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}

// PlainHasher is a fast, reversible PasswordHasher for tests.
type PlainHasher struct{}

// Hash prefixes the plaintext.
func (PlainHasher) Hash(plaintext string) (string, error) {
	return "plain:" + plaintext, nil
}

// Verify compares against the prefixed plaintext.
func (PlainHasher) Verify(plaintext, hash string) bool {
	return strings.TrimPrefix(hash, "plain:") == plaintext && strings.HasPrefix(hash, "plain:")
}
