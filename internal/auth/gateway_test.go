package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/testutil"
)

func newTestGateway(t *testing.T) (*Gateway, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewGateway(db.Storage, testutil.PlainHasher{}, testutil.DiscardLogger()), db
}

var aliceDraft = model.UserDraft{Username: "alice", FullName: "Alice Liddell", Password: "wonderland"}

func TestGateway_SignUp(t *testing.T) {
	gw, db := newTestGateway(t)
	ctx := context.Background()

	user, err := gw.SignUp(ctx, aliceDraft)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "Alice Liddell", user.FullName)
	assert.Zero(t, user.BalanceCents)
	assert.Equal(t, "plain:wonderland", user.PasswordHash, "the hasher owns the hash format")

	cats, err := db.Storage.GetCategories(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, cats, 3, "default categories are seeded")
}

func TestGateway_SignUpDuplicate(t *testing.T) {
	gw, _ := newTestGateway(t)
	ctx := context.Background()

	_, err := gw.SignUp(ctx, aliceDraft)
	require.NoError(t, err)

	_, err = gw.SignUp(ctx, aliceDraft)
	var dup *common.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "alice", dup.Existing)
}

func TestGateway_SignUpValidation(t *testing.T) {
	gw, db := newTestGateway(t)

	_, err := gw.SignUp(context.Background(), model.UserDraft{Username: "bob", FullName: "", Password: "short"})
	require.Error(t, err)

	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasField("full name"))
	assert.True(t, verr.HasField("password"))

	_, err = db.Storage.GetUser(context.Background(), "bob")
	assert.True(t, errors.Is(err, common.ErrNotFound), "invalid drafts never reach the store")
}

func TestGateway_SignUpIsAtomic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	faulty := testutil.NewFaultyStorage(db.Storage, testutil.OpCreateCategory)
	gw := NewGateway(faulty, testutil.PlainHasher{}, testutil.DiscardLogger())

	_, err := gw.SignUp(context.Background(), aliceDraft)
	require.Error(t, err)

	_, err = db.Storage.GetUser(context.Background(), "alice")
	assert.True(t, errors.Is(err, common.ErrNotFound), "user row must roll back with the categories")
}

func TestGateway_SignUpCommitFailureKeepsRollbackError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	faulty := testutil.NewFaultyStorage(db.Storage, testutil.OpCommit, testutil.OpRollback)
	logger, logs := testutil.BufferLogger()
	gw := NewGateway(faulty, testutil.PlainHasher{}, logger)

	_, err := gw.SignUp(context.Background(), aliceDraft)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrPersistence), "got %v", err)
	assert.Contains(t, err.Error(), "rollback failed")
	assert.Contains(t, logs.String(), "rollback failed")

	_, err = db.Storage.GetUser(context.Background(), "alice")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestGateway_LoginAndAuthenticate(t *testing.T) {
	gw, _ := newTestGateway(t)
	ctx := context.Background()

	_, err := gw.SignUp(ctx, aliceDraft)
	require.NoError(t, err)

	t.Run("login finds user", func(t *testing.T) {
		user, err := gw.Login(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "Alice Liddell", user.FullName)
	})

	t.Run("login unknown user", func(t *testing.T) {
		_, err := gw.Login(ctx, "mallory")
		assert.True(t, errors.Is(err, common.ErrNotFound))
	})

	t.Run("correct password", func(t *testing.T) {
		user, err := gw.Authenticate(ctx, "alice", "wonderland")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := gw.Authenticate(ctx, "alice", "looking-glass")
		assert.True(t, errors.Is(err, common.ErrAuth))
	})

	t.Run("unknown user is an auth failure", func(t *testing.T) {
		_, err := gw.Authenticate(ctx, "mallory", "wonderland")
		assert.True(t, errors.Is(err, common.ErrAuth))
	})
}

func TestGateway_Settings(t *testing.T) {
	gw, _ := newTestGateway(t)
	ctx := context.Background()

	user, err := gw.SignUp(ctx, aliceDraft)
	require.NoError(t, err)

	t.Run("change full name", func(t *testing.T) {
		require.NoError(t, gw.ChangeFullName(ctx, user, "Alice Pleasance"))
		assert.Equal(t, "Alice Pleasance", user.FullName)

		stored, err := gw.Login(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "Alice Pleasance", stored.FullName)
	})

	t.Run("reject empty full name", func(t *testing.T) {
		err := gw.ChangeFullName(ctx, user, "  ")
		assert.True(t, errors.Is(err, common.ErrValidation))
	})

	t.Run("change password requires current password", func(t *testing.T) {
		err := gw.ChangePassword(ctx, user, "nope-nope", "newpassword")
		assert.True(t, errors.Is(err, common.ErrAuth))
	})

	t.Run("change password", func(t *testing.T) {
		require.NoError(t, gw.ChangePassword(ctx, user, "wonderland", "newpassword"))

		_, err := gw.Authenticate(ctx, "alice", "newpassword")
		assert.NoError(t, err)
		_, err = gw.Authenticate(ctx, "alice", "wonderland")
		assert.Error(t, err)
	})
}
