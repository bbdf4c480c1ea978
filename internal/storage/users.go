package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// CreateUser inserts a new user. A taken username yields a DuplicateError.
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}
	return s.createUserTx(ctx, s.db, user)
}

func (s *SQLiteStorage) createUserTx(ctx context.Context, q queryable, user *model.User) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (username, full_name, balance_cents, password_hash)
		VALUES (?, ?, ?, ?)`,
		user.Username, user.FullName, user.BalanceCents, user.PasswordHash,
	)
	if isUniqueViolation(err) {
		return &common.DuplicateError{Kind: "user", Existing: user.Username}
	}
	if err != nil {
		return persistErr("create user", err)
	}

	slog.Debug("created user", "username", user.Username)
	return nil
}

// GetUser returns the user with the given username or a NotFoundError.
func (s *SQLiteStorage) GetUser(ctx context.Context, username string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getUserTx(ctx, s.db, username)
}

func (s *SQLiteStorage) getUserTx(ctx context.Context, q queryable, username string) (*model.User, error) {
	var user model.User
	err := q.QueryRowContext(ctx, `
		SELECT username, full_name, balance_cents, password_hash, created_at
		FROM users
		WHERE username = ?`, username,
	).Scan(&user.Username, &user.FullName, &user.BalanceCents, &user.PasswordHash, &user.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, &common.NotFoundError{Kind: "user", Key: username}
	}
	if err != nil {
		return nil, persistErr("get user", err)
	}
	return &user, nil
}

// UpdateFullName changes the user's display name.
func (s *SQLiteStorage) UpdateFullName(ctx context.Context, username, fullName string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.updateUserColumnTx(ctx, s.db, username, "full_name", fullName)
}

// UpdatePasswordHash replaces the stored password hash.
func (s *SQLiteStorage) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(hash, "hash"); err != nil {
		return err
	}
	return s.updateUserColumnTx(ctx, s.db, username, "password_hash", hash)
}

// updateUserColumnTx sets one mutable column. column is never caller input.
func (s *SQLiteStorage) updateUserColumnTx(ctx context.Context, q queryable, username, column, value string) error {
	var query string
	switch column {
	case "full_name":
		query = `UPDATE users SET full_name = ? WHERE username = ?`
	case "password_hash":
		query = `UPDATE users SET password_hash = ? WHERE username = ?`
	default:
		return fmt.Errorf("column %q is not updatable", column)
	}

	res, err := q.ExecContext(ctx, query, value, username)
	if err != nil {
		return persistErr("update user", err)
	}
	return expectOneRow(res, "user", username)
}

// GetBalance reads the stored balance for username.
func (s *SQLiteStorage) GetBalance(ctx context.Context, username string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.getBalanceTx(ctx, s.db, username)
}

func (s *SQLiteStorage) getBalanceTx(ctx context.Context, q queryable, username string) (int64, error) {
	var cents int64
	err := q.QueryRowContext(ctx, `SELECT balance_cents FROM users WHERE username = ?`, username).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &common.NotFoundError{Kind: "user", Key: username}
	}
	if err != nil {
		return 0, persistErr("get balance", err)
	}
	return cents, nil
}

// SetBalance writes the stored balance for username. Only the ledger
// poster calls this, inside the same unit of work as the insert.
func (s *SQLiteStorage) SetBalance(ctx context.Context, username string, cents int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.setBalanceTx(ctx, s.db, username, cents)
}

func (s *SQLiteStorage) setBalanceTx(ctx context.Context, q queryable, username string, cents int64) error {
	res, err := q.ExecContext(ctx, `UPDATE users SET balance_cents = ? WHERE username = ?`, cents, username)
	if err != nil {
		return persistErr("set balance", err)
	}
	return expectOneRow(res, "user", username)
}

func expectOneRow(res sql.Result, kind, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return persistErr("rows affected", err)
	}
	if n == 0 {
		return &common.NotFoundError{Kind: kind, Key: key}
	}
	return nil
}
