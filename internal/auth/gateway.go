// Package auth looks up ledger accounts and manages their credentials.
// Password hashing is delegated to an injected service.PasswordHasher.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
)

// Gateway is the only path to user rows.
type Gateway struct {
	store  service.Storage
	hasher service.PasswordHasher
	logger *slog.Logger
}

// NewGateway creates an auth gateway. A nil logger falls back to
// slog.Default.
func NewGateway(store service.Storage, hasher service.PasswordHasher, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{store: store, hasher: hasher, logger: logger}
}

// Login returns the user named username or a NotFoundError. It does not
// check credentials; see Authenticate.
func (g *Gateway) Login(ctx context.Context, username string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if err := model.ValidateUsername(username); err != nil {
		return nil, err
	}
	return g.store.GetUser(ctx, username)
}

// Authenticate returns the user when password matches the stored hash.
// An unknown username and a wrong password both yield an AuthError.
func (g *Gateway) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := g.Login(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrValidation) {
			return nil, &common.AuthError{Username: username}
		}
		return nil, err
	}

	if !g.hasher.Verify(password, user.PasswordHash) {
		g.logger.Debug("password mismatch", "username", username)
		return nil, &common.AuthError{Username: username}
	}
	return user, nil
}

// SignUp validates draft, hashes its password and stores the new user with
// a zero balance and the default categories in one unit of work.
func (g *Gateway) SignUp(ctx context.Context, draft model.UserDraft) (*model.User, error) {
	draft.Username = strings.TrimSpace(draft.Username)
	draft.FullName = strings.TrimSpace(draft.FullName)
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	// Checked before hashing so a taken name never costs a bcrypt round.
	if _, err := g.store.GetUser(ctx, draft.Username); err == nil {
		return nil, &common.DuplicateError{Kind: "user", Existing: draft.Username}
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	hash, err := g.hasher.Hash(draft.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     draft.Username,
		FullName:     draft.FullName,
		PasswordHash: hash,
	}

	tx, err := g.store.BeginTx(ctx)
	if err != nil {
		return nil, &common.PersistenceError{Op: "sign up", Err: err}
	}

	if err := createAccount(ctx, tx, user); err != nil {
		return nil, g.rollback(ctx, tx, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, g.rollback(ctx, tx, &common.PersistenceError{Op: "sign up", Err: err})
	}

	g.logger.Info("user signed up", "username", user.Username)
	return g.store.GetUser(ctx, user.Username)
}

// rollback undoes tx after cause and joins any rollback failure to it.
func (g *Gateway) rollback(ctx context.Context, tx service.Transaction, cause error) error {
	rbErr := tx.Rollback()
	if rbErr == nil || errors.Is(rbErr, sql.ErrTxDone) {
		return cause
	}
	common.LogError(ctx, g.logger, rbErr, "rollback failed", common.Fields{"op": "sign up"})
	return errors.Join(cause, fmt.Errorf("rollback failed: %w", rbErr))
}

func createAccount(ctx context.Context, tx service.Transaction, user *model.User) error {
	if err := tx.CreateUser(ctx, user); err != nil {
		return err
	}
	for _, cat := range model.DefaultCategories(user.Username) {
		if err := tx.CreateCategory(ctx, &cat); err != nil {
			return err
		}
	}
	return nil
}

// ChangeFullName updates the display name of user.
func (g *Gateway) ChangeFullName(ctx context.Context, user *model.User, fullName string) error {
	fullName = strings.TrimSpace(fullName)
	if err := model.ValidateFullName(fullName); err != nil {
		return err
	}
	if err := g.store.UpdateFullName(ctx, user.Username, fullName); err != nil {
		return err
	}
	user.FullName = fullName
	return nil
}

// ChangePassword replaces the password after verifying the current one.
func (g *Gateway) ChangePassword(ctx context.Context, user *model.User, current, next string) error {
	stored, err := g.Authenticate(ctx, user.Username, current)
	if err != nil {
		return err
	}
	if err := model.ValidatePassword(next); err != nil {
		return err
	}

	hash, err := g.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := g.store.UpdatePasswordHash(ctx, stored.Username, hash); err != nil {
		return err
	}
	user.PasswordHash = hash
	return nil
}
