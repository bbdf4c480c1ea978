// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/tally/internal/history"
	"github.com/Veraticus/tally/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// User operations
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, username string) (*model.User, error)
	UpdateFullName(ctx context.Context, username, fullName string) error
	UpdatePasswordHash(ctx context.Context, username, hash string) error
	GetBalance(ctx context.Context, username string) (int64, error)
	SetBalance(ctx context.Context, username string, cents int64) error

	// Category operations
	GetCategories(ctx context.Context, owner string) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, owner, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, owner, name string) error
	CountTransactionsByCategory(ctx context.Context, owner, name string) (int, error)

	// Transaction operations
	InsertTransaction(ctx context.Context, txn *model.Transaction) error
	QueryTransactions(ctx context.Context, q history.Query) ([]model.Transaction, error)
	SumTransactions(ctx context.Context, owner string) (int64, error)
	SumByCategory(ctx context.Context, q history.Query) ([]model.CategoryTotal, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// PasswordHasher produces and checks opaque password hashes.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// ErrorReporter receives every error that escapes a ledger operation.
type ErrorReporter interface {
	Report(ctx context.Context, at time.Time, message string, err error)
}
