package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tally/internal/auth"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/engine"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/storage"
)

func seedAccount(t *testing.T, dbPath string) {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Migrate(ctx))

	eng := engine.New(store, auth.BcryptHasher{Cost: 4}, nil)
	_, err = eng.SignUp(ctx, model.UserDraft{Username: "alice", FullName: "Alice Liddell", Password: "rabbithole"})
	require.NoError(t, err)
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func TestCommands_AliceScenario(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("TALLY_PASSWORD", "rabbithole")
	dbPath := filepath.Join(dir, "ledger.db")
	seedAccount(t, dbPath)

	base := []string{"--db", dbPath, "--user", "alice"}
	run := func(args ...string) string {
		return execute(t, append(append([]string{}, base...), args...)...)
	}

	assert.Contains(t, run("categories", "add", "food"), "Added category Food")
	assert.Contains(t, run("categories", "add", "--kind", "deposit", "side", "gigs"), "Added category Side gigs")
	assert.Contains(t, run("deposit", "100", "Paycheck"), "Balance: ")
	out := run("withdraw", "42.50", "Groceries", "--category", "FOOD")
	assert.Contains(t, out, "57.50")

	out = run("history", "--filter", "category = food")
	assert.Contains(t, out, "Groceries")
	assert.Contains(t, out, "-42.50")
	assert.NotContains(t, out, "Paycheck")
	assert.Contains(t, out, "1 transaction(s)")

	assert.Contains(t, run("balance", "--check"), "matches")
	assert.Contains(t, run("totals"), "Food")
}

func TestCommands_UnopenableLedger(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o600))
	dbPath := filepath.Join(blocker, "ledger.db")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--db", dbPath, "categories", "list"})
	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)

	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "could not open the ledger at "+dbPath, common.UserMessage(err))
}

func TestCategoryKindFromFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    model.CategoryKind
		wantErr bool
	}{
		{name: "default is spending", want: model.CategoryKindSpending},
		{name: "kind deposit", args: []string{"--kind", "Deposit"}, want: model.CategoryKindDeposit},
		{name: "deposit shorthand", args: []string{"--deposit"}, want: model.CategoryKindDeposit},
		{name: "unknown kind", args: []string{"--kind", "savings"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := categoriesAddCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))

			kind, err := categoryKindFromFlags(cmd)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	assert.Contains(t, execute(t, "version"), "tally dev")
}
