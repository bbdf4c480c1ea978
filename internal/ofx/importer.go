package ofx

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/model"
)

// Poster posts one draft atomically.
type Poster interface {
	Post(ctx context.Context, user *model.User, draft *model.TransactionBuilder) (*ledger.Receipt, error)
}

// CategoryResolver finds a user's category by name.
type CategoryResolver interface {
	Resolve(ctx context.Context, user *model.User, name string) (*model.Category, error)
}

// Default categories for imported lines.
const (
	DefaultDepositCategory    = "Deposit"
	DefaultWithdrawalCategory = "Misc"
)

// ImportOptions selects the categories imported lines are filed under.
type ImportOptions struct {
	DepositCategory    string
	WithdrawalCategory string
}

// Skipped is an entry that failed validation and was not posted.
type Skipped struct {
	Err   error
	Entry Entry
}

// ImportResult summarises an import.
type ImportResult struct {
	Skipped      []Skipped
	Posted       int
	BalanceCents int64
}

// Importer posts statement entries one at a time through the ledger poster,
// so each line keeps the balance invariant on its own.
type Importer struct {
	poster     Poster
	categories CategoryResolver
	now        func() time.Time
	logger     *slog.Logger
}

// NewImporter creates an importer. A nil clock uses time.Now and a nil
// logger falls back to slog.Default.
func NewImporter(poster Poster, categories CategoryResolver, now func() time.Time, logger *slog.Logger) *Importer {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{poster: poster, categories: categories, now: now, logger: logger}
}

// Import posts entries for user. Entries that fail validation are skipped
// and reported; a storage failure stops the import and is returned with
// the result so far, as does cancelling ctx between entries. progress, when
// set, is called after every entry.
func (im *Importer) Import(ctx context.Context, user *model.User, entries []Entry, opts ImportOptions, progress func()) (ImportResult, error) {
	if opts.DepositCategory == "" {
		opts.DepositCategory = DefaultDepositCategory
	}
	if opts.WithdrawalCategory == "" {
		opts.WithdrawalCategory = DefaultWithdrawalCategory
	}

	depositCat, err := im.categories.Resolve(ctx, user, opts.DepositCategory)
	if err != nil {
		return ImportResult{}, err
	}
	withdrawalCat, err := im.categories.Resolve(ctx, user, opts.WithdrawalCategory)
	if err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{BalanceCents: user.BalanceCents}
	today := im.now()
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		cat := *withdrawalCat
		if e.AmountCents > 0 {
			cat = *depositCat
		}

		draft := model.NewTransactionBuilder(today).
			AsDeposit(e.AmountCents > 0).
			WithDescription(e.Description).
			WithAmountCents(e.AmountCents).
			WithDate(e.Date).
			WithCategory(cat).
			WithMemo(e.Memo)

		receipt, err := im.poster.Post(ctx, user, draft)
		switch {
		case err == nil:
			result.Posted++
			result.BalanceCents = receipt.BalanceCents
		case errors.Is(err, common.ErrValidation):
			im.logger.Warn("skipping statement line", "fitid", e.FitID, "error", err)
			result.Skipped = append(result.Skipped, Skipped{Entry: e, Err: err})
		default:
			return result, err
		}

		if progress != nil {
			progress()
		}
	}

	im.logger.Info("Imported statement",
		"user", user.Username,
		"posted", result.Posted,
		"skipped", len(result.Skipped))
	return result, nil
}
