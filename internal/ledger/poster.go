// Package ledger posts transactions and keeps each user's balance equal to
// the sum of their posted amounts.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
)

// Receipt is the committed result of a posting.
type Receipt struct {
	Transaction  model.Transaction
	BalanceCents int64
}

// Poster is the only writer of transactions and balances.
type Poster struct {
	store  service.Storage
	logger *slog.Logger
	newID  func() string
}

// NewPoster creates a ledger poster. A nil logger falls back to slog.Default.
func NewPoster(store service.Storage, logger *slog.Logger) *Poster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poster{store: store, logger: logger, newID: uuid.NewString}
}

// Post builds the draft, then inserts the transaction and adjusts the
// owner's balance in one unit of work. Validation failures are returned
// before the store is touched. Any storage failure rolls the unit back and
// is returned as a PersistenceError; a failed rollback is joined to it.
// user.BalanceCents changes only after a successful commit.
//
// Once the unit of work starts, cancelling ctx no longer interrupts it.
func (p *Poster) Post(ctx context.Context, user *model.User, draft *model.TransactionBuilder) (*Receipt, error) {
	if user == nil {
		return nil, fmt.Errorf("posting requires a logged-in user")
	}
	if draft == nil {
		return nil, common.NewValidationError("transaction", "draft is required")
	}

	txn, err := draft.Build()
	if err != nil {
		return nil, err
	}
	if txn.Owner != user.Username {
		return nil, common.NewValidationError(model.FieldCategory, "%s belongs to another user", txn.Category)
	}
	txn.ID = p.newID()

	ctx = context.WithoutCancel(ctx)

	tx, err := p.store.BeginTx(ctx)
	if err != nil {
		return nil, &common.PersistenceError{Op: "begin posting", Err: err}
	}

	balance, err := apply(ctx, tx, &txn)
	if err != nil {
		return nil, p.abort(ctx, tx, "post transaction", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, p.abort(ctx, tx, "commit posting", err)
	}

	user.BalanceCents = balance
	p.logger.Info("posted transaction",
		"user", user.Username,
		"id", txn.ID,
		"amount", model.FormatCents(txn.AmountCents),
		"category", txn.Category,
		"balance", model.FormatCents(balance))

	return &Receipt{Transaction: txn, BalanceCents: balance}, nil
}

// apply inserts txn, then reads, adjusts and writes the owner's balance.
func apply(ctx context.Context, tx service.Transaction, txn *model.Transaction) (int64, error) {
	if err := tx.InsertTransaction(ctx, txn); err != nil {
		return 0, err
	}

	current, err := tx.GetBalance(ctx, txn.Owner)
	if err != nil {
		return 0, err
	}

	if (txn.AmountCents > 0 && current > math.MaxInt64-txn.AmountCents) ||
		(txn.AmountCents < 0 && current < math.MinInt64-txn.AmountCents) {
		return 0, fmt.Errorf("balance %d cannot absorb %d without overflow", current, txn.AmountCents)
	}
	next := current + txn.AmountCents

	if err := tx.SetBalance(ctx, txn.Owner, next); err != nil {
		return 0, err
	}
	return next, nil
}

// abort rolls tx back and reports cause, together with any rollback failure.
func (p *Poster) abort(ctx context.Context, tx service.Transaction, op string, cause error) error {
	var pe *common.PersistenceError
	if errors.As(cause, &pe) {
		op, cause = pe.Op, pe.Err
	}

	if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		common.LogError(ctx, p.logger, rbErr, "rollback failed", common.Fields{"op": op})
		cause = errors.Join(cause, fmt.Errorf("rollback failed: %w", rbErr))
	}
	return &common.PersistenceError{Op: op, Err: cause}
}

// Reconciliation compares the stored balance with the sum of transactions.
type Reconciliation struct {
	StoredCents   int64
	ComputedCents int64
}

// DriftCents is stored minus computed; zero when the ledger is consistent.
func (r Reconciliation) DriftCents() int64 {
	return r.StoredCents - r.ComputedCents
}

// Balanced reports whether the stored balance matches the transactions.
func (r Reconciliation) Balanced() bool {
	return r.DriftCents() == 0
}

// Reconcile recomputes user's balance from their transactions without
// changing anything.
func (p *Poster) Reconcile(ctx context.Context, user *model.User) (Reconciliation, error) {
	if user == nil {
		return Reconciliation{}, fmt.Errorf("reconciling requires a logged-in user")
	}
	stored, err := p.store.GetBalance(ctx, user.Username)
	if err != nil {
		return Reconciliation{}, err
	}
	computed, err := p.store.SumTransactions(ctx, user.Username)
	if err != nil {
		return Reconciliation{}, err
	}

	r := Reconciliation{StoredCents: stored, ComputedCents: computed}
	if !r.Balanced() {
		p.logger.Warn("balance drift detected", "user", user.Username, "stored", stored, "computed", computed)
	}
	return r, nil
}
