// Package engine is the presentation-facing API of the ledger. It wires the
// auth gateway, category registry, poster and history service to one store
// and reports every error that leaves it.
package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/tally/internal/auth"
	"github.com/Veraticus/tally/internal/category"
	"github.com/Veraticus/tally/internal/history"
	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/ofx"
	"github.com/Veraticus/tally/internal/service"
)

// ErrNotLoggedIn is returned by operations that need a current user.
var ErrNotLoggedIn = errors.New("no user is logged in")

// Engine orchestrates the ledger components.
type Engine struct {
	reporter   service.ErrorReporter
	gateway    *auth.Gateway
	categories *category.Registry
	poster     *ledger.Poster
	history    *history.Service
	importer   *ofx.Importer
	parser     StatementParser
	now        func() time.Time
	logger     *slog.Logger
}

// Config holds configuration options for the engine.
type Config struct {
	// Now supplies the clock used for "today" checks and error reports.
	Now func() time.Time
	// HistoryDefaultLimit caps history rows when a request sets no limit.
	// Zero means unlimited.
	HistoryDefaultLimit int
	// Logger is handed to every component.
	Logger *slog.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Now: time.Now, Logger: slog.Default()}
}

// New creates an engine with the given dependencies.
func New(store service.Storage, hasher service.PasswordHasher, reporter service.ErrorReporter) *Engine {
	return NewWithConfig(store, hasher, reporter, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(store service.Storage, hasher service.PasswordHasher, reporter service.ErrorReporter, config Config) *Engine {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	logger := config.Logger
	categories := category.NewRegistry(store, logger)
	poster := ledger.NewPoster(store, logger)

	return &Engine{
		reporter:   reporter,
		gateway:    auth.NewGateway(store, hasher, logger),
		categories: categories,
		poster:     poster,
		history:    history.NewService(store, categories, config.HistoryDefaultLimit, logger),
		importer:   ofx.NewImporter(poster, categories, config.Now, logger),
		parser:     ofx.NewParser(),
		now:        config.Now,
		logger:     logger,
	}
}

// report forwards a non-nil err to the reporter and returns it unchanged.
func (e *Engine) report(ctx context.Context, op string, err error) error {
	if err != nil && e.reporter != nil {
		e.reporter.Report(ctx, e.now(), op, err)
	}
	return err
}

func (e *Engine) requireUser(ctx context.Context, op string, user *model.User) error {
	if user == nil {
		return e.report(ctx, op, ErrNotLoggedIn)
	}
	return nil
}

// Login looks a user up by username.
func (e *Engine) Login(ctx context.Context, username string) (*model.User, error) {
	user, err := e.gateway.Login(ctx, username)
	return user, e.report(ctx, "login", err)
}

// Authenticate looks a user up and checks their password.
func (e *Engine) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := e.gateway.Authenticate(ctx, username, password)
	return user, e.report(ctx, "authenticate", err)
}

// SignUp creates a user with a zero balance and the default categories.
func (e *Engine) SignUp(ctx context.Context, draft model.UserDraft) (*model.User, error) {
	user, err := e.gateway.SignUp(ctx, draft)
	return user, e.report(ctx, "sign up", err)
}

// ChangeFullName updates the user's display name.
func (e *Engine) ChangeFullName(ctx context.Context, user *model.User, fullName string) error {
	if err := e.requireUser(ctx, "change full name", user); err != nil {
		return err
	}
	return e.report(ctx, "change full name", e.gateway.ChangeFullName(ctx, user, fullName))
}

// ChangePassword replaces the user's password after verifying the current one.
func (e *Engine) ChangePassword(ctx context.Context, user *model.User, current, next string) error {
	if err := e.requireUser(ctx, "change password", user); err != nil {
		return err
	}
	return e.report(ctx, "change password", e.gateway.ChangePassword(ctx, user, current, next))
}

// ListCategories returns the user's categories.
func (e *Engine) ListCategories(ctx context.Context, user *model.User) ([]model.Category, error) {
	if err := e.requireUser(ctx, "list categories", user); err != nil {
		return nil, err
	}
	cats, err := e.categories.List(ctx, user)
	return cats, e.report(ctx, "list categories", err)
}

// AddCategory adds a category unless one with the same name in any casing exists.
func (e *Engine) AddCategory(ctx context.Context, user *model.User, name string, kind model.CategoryKind) (*model.Category, error) {
	if err := e.requireUser(ctx, "add category", user); err != nil {
		return nil, err
	}
	cat, err := e.categories.Add(ctx, user, name, kind)
	return cat, e.report(ctx, "add category", err)
}

// ResolveCategory finds one of the user's categories by name in any casing.
func (e *Engine) ResolveCategory(ctx context.Context, user *model.User, name string) (*model.Category, error) {
	if err := e.requireUser(ctx, "resolve category", user); err != nil {
		return nil, err
	}
	cat, err := e.categories.Resolve(ctx, user, name)
	return cat, e.report(ctx, "resolve category", err)
}

// RemoveCategory deletes an unused, non-default category.
func (e *Engine) RemoveCategory(ctx context.Context, user *model.User, name string) error {
	if err := e.requireUser(ctx, "remove category", user); err != nil {
		return err
	}
	return e.report(ctx, "remove category", e.categories.Remove(ctx, user, name))
}

// Today is the engine clock's calendar date.
func (e *Engine) Today() time.Time {
	return model.CalendarDate(e.now())
}

// NewDraft starts a withdrawal draft dated against the engine clock.
func (e *Engine) NewDraft() *model.TransactionBuilder {
	return model.NewTransactionBuilder(e.now())
}

// Post records the draft and adjusts the user's balance atomically.
func (e *Engine) Post(ctx context.Context, user *model.User, draft *model.TransactionBuilder) (*ledger.Receipt, error) {
	if err := e.requireUser(ctx, "post transaction", user); err != nil {
		return nil, err
	}
	receipt, err := e.poster.Post(ctx, user, draft)
	return receipt, e.report(ctx, "post transaction", err)
}

// Reconcile compares the stored balance with the sum of the user's transactions.
func (e *Engine) Reconcile(ctx context.Context, user *model.User) (ledger.Reconciliation, error) {
	if err := e.requireUser(ctx, "reconcile", user); err != nil {
		return ledger.Reconciliation{}, err
	}
	rec, err := e.poster.Reconcile(ctx, user)
	return rec, e.report(ctx, "reconcile", err)
}

// Explain composes req without running it.
func (e *Engine) Explain(ctx context.Context, user *model.User, req history.Request) (history.Query, error) {
	if err := e.requireUser(ctx, "explain history", user); err != nil {
		return history.Query{}, err
	}
	q, err := e.history.Prepare(ctx, user, req)
	return q, e.report(ctx, "explain history", err)
}

// BuildAndRun composes req and returns the matching transactions.
func (e *Engine) BuildAndRun(ctx context.Context, user *model.User, req history.Request) ([]model.Transaction, error) {
	if err := e.requireUser(ctx, "history", user); err != nil {
		return nil, err
	}
	txns, err := e.history.Run(ctx, user, req)
	return txns, e.report(ctx, "history", err)
}

// Totals returns per-category totals over the rows req matches.
func (e *Engine) Totals(ctx context.Context, user *model.User, req history.Request) ([]model.CategoryTotal, error) {
	if err := e.requireUser(ctx, "totals", user); err != nil {
		return nil, err
	}
	totals, err := e.history.Totals(ctx, user, req)
	return totals, e.report(ctx, "totals", err)
}

// ParseStatement reads an OFX/QFX statement.
func (e *Engine) ParseStatement(ctx context.Context, r io.Reader) ([]ofx.Entry, error) {
	entries, err := e.parser.ParseFile(ctx, r)
	return entries, e.report(ctx, "parse statement", err)
}

// ImportEntries posts parsed statement entries for user, one unit of work each.
func (e *Engine) ImportEntries(ctx context.Context, user *model.User, entries []ofx.Entry, opts ofx.ImportOptions, progress func()) (ofx.ImportResult, error) {
	if err := e.requireUser(ctx, "import statement", user); err != nil {
		return ofx.ImportResult{}, err
	}
	result, err := e.importer.Import(ctx, user, entries, opts, progress)
	if err == nil && len(result.Skipped) > 0 {
		e.logger.Warn("statement lines skipped", "count", len(result.Skipped))
	}
	return result, e.report(ctx, "import statement", err)
}

// ImportOFX parses and imports a statement in one call.
func (e *Engine) ImportOFX(ctx context.Context, user *model.User, r io.Reader, opts ofx.ImportOptions) (ofx.ImportResult, error) {
	entries, err := e.ParseStatement(ctx, r)
	if err != nil {
		return ofx.ImportResult{}, err
	}
	return e.ImportEntries(ctx, user, entries, opts, nil)
}
