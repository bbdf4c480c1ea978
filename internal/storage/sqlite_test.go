package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err, "failed to create storage")

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

// createTestUser stores a user with the default categories.
func createTestUser(t *testing.T, store *SQLiteStorage, username string) *model.User {
	t.Helper()
	ctx := context.Background()

	user := &model.User{Username: username, FullName: username + " tester", PasswordHash: "hash"}
	require.NoError(t, store.CreateUser(ctx, user))
	for _, cat := range model.DefaultCategories(username) {
		require.NoError(t, store.CreateCategory(ctx, &cat))
	}
	return user
}

func testTransaction(owner, id, category string, cents int64, day time.Time) *model.Transaction {
	return &model.Transaction{
		ID:          id,
		Owner:       owner,
		Description: "txn " + id,
		AmountCents: cents,
		Date:        day,
		Category:    category,
	}
}

func TestSQLiteStorage_Users(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	createTestUser(t, store, "alice")

	t.Run("get returns stored row", func(t *testing.T) {
		got, err := store.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, "alice tester", got.FullName)
		assert.Equal(t, "hash", got.PasswordHash)
		assert.Zero(t, got.BalanceCents)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := store.GetUser(ctx, "nobody")
		assert.True(t, errors.Is(err, common.ErrNotFound))
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := store.CreateUser(ctx, &model.User{Username: "alice", FullName: "Other", PasswordHash: "x"})
		var dup *common.DuplicateError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "alice", dup.Existing)
	})

	t.Run("update full name and hash", func(t *testing.T) {
		require.NoError(t, store.UpdateFullName(ctx, "alice", "Alice Liddell"))
		require.NoError(t, store.UpdatePasswordHash(ctx, "alice", "hash2"))

		got, err := store.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "Alice Liddell", got.FullName)
		assert.Equal(t, "hash2", got.PasswordHash)
	})

	t.Run("update unknown user", func(t *testing.T) {
		err := store.UpdateFullName(ctx, "nobody", "x")
		assert.True(t, errors.Is(err, common.ErrNotFound))
	})

	t.Run("balance round trip", func(t *testing.T) {
		require.NoError(t, store.SetBalance(ctx, "alice", 1234))
		got, err := store.GetBalance(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(1234), got)
	})
}

func TestSQLiteStorage_Categories(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	createTestUser(t, store, "alice")
	createTestUser(t, store, "bob")

	require.NoError(t, store.CreateCategory(ctx, &model.Category{Owner: "alice", Name: "Food", Kind: model.CategoryKindSpending}))

	t.Run("list is per owner", func(t *testing.T) {
		cats, err := store.GetCategories(ctx, "alice")
		require.NoError(t, err)
		names := make([]string, 0, len(cats))
		for _, c := range cats {
			names = append(names, c.Name)
		}
		assert.Equal(t, []string{"Deposit", "Food", "Misc", "N/A"}, names)

		bobs, err := store.GetCategories(ctx, "bob")
		require.NoError(t, err)
		assert.Len(t, bobs, 3)
	})

	t.Run("lookup is case-insensitive and keeps stored casing", func(t *testing.T) {
		cat, err := store.GetCategoryByName(ctx, "alice", "fOOD")
		require.NoError(t, err)
		assert.Equal(t, "Food", cat.Name)
		assert.Equal(t, model.CategoryKindSpending, cat.Kind)

		dep, err := store.GetCategoryByName(ctx, "alice", "deposit")
		require.NoError(t, err)
		assert.True(t, dep.IsDeposit())
		assert.True(t, dep.IsDefault)
	})

	t.Run("constraint rejects case-only duplicate", func(t *testing.T) {
		err := store.CreateCategory(ctx, &model.Category{Owner: "alice", Name: "FOOD", Kind: model.CategoryKindSpending})
		var dup *common.DuplicateError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "Food", dup.Existing)
	})

	t.Run("same name for another owner is fine", func(t *testing.T) {
		err := store.CreateCategory(ctx, &model.Category{Owner: "bob", Name: "Food", Kind: model.CategoryKindSpending})
		assert.NoError(t, err)
	})

	t.Run("category for unknown owner", func(t *testing.T) {
		err := store.CreateCategory(ctx, &model.Category{Owner: "ghost", Name: "Food", Kind: model.CategoryKindSpending})
		assert.True(t, errors.Is(err, common.ErrNotFound))
	})

	t.Run("defaults cannot be deleted", func(t *testing.T) {
		err := store.DeleteCategory(ctx, "alice", "Misc")
		assert.True(t, errors.Is(err, common.ErrNotFound))
	})

	t.Run("referenced category cannot be deleted", func(t *testing.T) {
		require.NoError(t, store.InsertTransaction(ctx, testTransaction("bob", "b1", "Food", -100, time.Now())))

		err := store.DeleteCategory(ctx, "bob", "food")
		assert.True(t, errors.Is(err, common.ErrValidation), "got %v", err)

		n, err := store.CountTransactionsByCategory(ctx, "bob", "Food")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("referenced category cannot be deleted inside a transaction", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()

		err = tx.DeleteCategory(ctx, "bob", "Food")
		assert.True(t, errors.Is(err, common.ErrValidation), "got %v", err)
		var perr *common.PersistenceError
		assert.False(t, errors.As(err, &perr))
	})

	t.Run("unreferenced custom category is deleted", func(t *testing.T) {
		require.NoError(t, store.DeleteCategory(ctx, "alice", "food"))
		_, err := store.GetCategoryByName(ctx, "alice", "Food")
		assert.True(t, errors.Is(err, common.ErrNotFound))
	})
}

func TestSQLiteStorage_TransactionRollback(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	createTestUser(t, store, "alice")

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertTransaction(ctx, testTransaction("alice", "t1", "Deposit", 500, time.Now())))
	require.NoError(t, tx.SetBalance(ctx, "alice", 500))
	require.NoError(t, tx.Rollback())

	balance, err := store.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, balance)

	sum, err := store.SumTransactions(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, sum)
}

func TestSQLiteStorage_TransactionRestrictions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.BeginTx(ctx)
	assert.Error(t, err)
	assert.Error(t, tx.Migrate(ctx))
	assert.Error(t, tx.Close())
}
