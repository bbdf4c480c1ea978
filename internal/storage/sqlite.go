package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/Veraticus/tally/internal/history"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	// Validate input
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time; the ledger is a single-user local store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTransaction{
		tx:      tx,
		storage: s,
	}, nil
}

// isUniqueViolation reports whether err is a SQLite unique or primary key
// constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// isForeignKeyViolation reports whether err is a SQLite foreign key failure.
// Deleting a parent row under ON DELETE RESTRICT surfaces as a trigger
// constraint carrying the foreign key message.
func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintForeignKey:
		return true
	case sqlite3.ErrConstraintTrigger:
		return strings.Contains(sqliteErr.Error(), "FOREIGN KEY")
	}
	return false
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction.
type sqliteTransaction struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

// Transaction methods delegate to the main storage with the transaction.
func (t *sqliteTransaction) CreateUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}
	return t.storage.createUserTx(ctx, t.tx, user)
}

func (t *sqliteTransaction) GetUser(ctx context.Context, username string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getUserTx(ctx, t.tx, username)
}

func (t *sqliteTransaction) UpdateFullName(ctx context.Context, username, fullName string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return t.storage.updateUserColumnTx(ctx, t.tx, username, "full_name", fullName)
}

func (t *sqliteTransaction) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return t.storage.updateUserColumnTx(ctx, t.tx, username, "password_hash", hash)
}

func (t *sqliteTransaction) GetBalance(ctx context.Context, username string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return t.storage.getBalanceTx(ctx, t.tx, username)
}

func (t *sqliteTransaction) SetBalance(ctx context.Context, username string, cents int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return t.storage.setBalanceTx(ctx, t.tx, username, cents)
}

func (t *sqliteTransaction) GetCategories(ctx context.Context, owner string) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getCategoriesTx(ctx, t.tx, owner)
}

func (t *sqliteTransaction) GetCategoryByName(ctx context.Context, owner, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getCategoryByNameTx(ctx, t.tx, owner, name)
}

func (t *sqliteTransaction) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}
	return t.storage.createCategoryTx(ctx, t.tx, category)
}

func (t *sqliteTransaction) DeleteCategory(ctx context.Context, owner, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return t.storage.deleteCategoryTx(ctx, t.tx, owner, name)
}

func (t *sqliteTransaction) CountTransactionsByCategory(ctx context.Context, owner, name string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return t.storage.countTransactionsByCategoryTx(ctx, t.tx, owner, name)
}

func (t *sqliteTransaction) InsertTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return t.storage.insertTransactionTx(ctx, t.tx, txn)
}

func (t *sqliteTransaction) QueryTransactions(ctx context.Context, q history.Query) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.queryTransactionsTx(ctx, t.tx, q)
}

func (t *sqliteTransaction) SumTransactions(ctx context.Context, owner string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return t.storage.sumTransactionsTx(ctx, t.tx, owner)
}

func (t *sqliteTransaction) SumByCategory(ctx context.Context, q history.Query) ([]model.CategoryTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.sumByCategoryTx(ctx, t.tx, q)
}

func (t *sqliteTransaction) Migrate(_ context.Context) error {
	// Migrations should not be run within a transaction
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTransaction) BeginTx(_ context.Context) (service.Transaction, error) {
	// Nested transactions not supported
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTransaction) Close() error {
	// Transactions should be committed or rolled back, not closed
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}
