package testutil

import (
	"context"
	"errors"

	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
)

// ErrInjected is returned by FaultyStorage for the operations it is told to fail.
var ErrInjected = errors.New("injected storage failure")

// Operations FaultyStorage can fail.
const (
	OpBeginTx           = "BeginTx"
	OpInsertTransaction = "InsertTransaction"
	OpGetBalance        = "GetBalance"
	OpSetBalance        = "SetBalance"
	OpCommit            = "Commit"
	OpRollback          = "Rollback"
	OpCreateCategory    = "CreateCategory"
)

// FaultyStorage wraps a real store and fails selected operations inside
// units of work. Failed operations do not reach the wrapped store, except
// Rollback, which still rolls back before reporting failure.
type FaultyStorage struct {
	service.Storage
	fail map[string]bool
}

// NewFaultyStorage wraps inner, failing every named operation.
func NewFaultyStorage(inner service.Storage, ops ...string) *FaultyStorage {
	f := &FaultyStorage{Storage: inner, fail: make(map[string]bool, len(ops))}
	for _, op := range ops {
		f.fail[op] = true
	}
	return f
}

// BeginTx starts a unit of work whose operations honour the fault set.
func (f *FaultyStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if f.fail[OpBeginTx] {
		return nil, ErrInjected
	}
	tx, err := f.Storage.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &faultyTx{Transaction: tx, fail: f.fail}, nil
}

type faultyTx struct {
	service.Transaction
	fail map[string]bool
}

func (t *faultyTx) InsertTransaction(ctx context.Context, txn *model.Transaction) error {
	if t.fail[OpInsertTransaction] {
		return ErrInjected
	}
	return t.Transaction.InsertTransaction(ctx, txn)
}

func (t *faultyTx) GetBalance(ctx context.Context, username string) (int64, error) {
	if t.fail[OpGetBalance] {
		return 0, ErrInjected
	}
	return t.Transaction.GetBalance(ctx, username)
}

func (t *faultyTx) SetBalance(ctx context.Context, username string, cents int64) error {
	if t.fail[OpSetBalance] {
		return ErrInjected
	}
	return t.Transaction.SetBalance(ctx, username, cents)
}

func (t *faultyTx) CreateCategory(ctx context.Context, category *model.Category) error {
	if t.fail[OpCreateCategory] {
		return ErrInjected
	}
	return t.Transaction.CreateCategory(ctx, category)
}

func (t *faultyTx) Commit() error {
	if t.fail[OpCommit] {
		return ErrInjected
	}
	return t.Transaction.Commit()
}

func (t *faultyTx) Rollback() error {
	err := t.Transaction.Rollback()
	if t.fail[OpRollback] {
		return errors.Join(ErrInjected, err)
	}
	return err
}
