package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/tally/internal/model"
)

// Store executes composed queries.
type Store interface {
	QueryTransactions(ctx context.Context, q Query) ([]model.Transaction, error)
	SumByCategory(ctx context.Context, q Query) ([]model.CategoryTotal, error)
}

// CategoryResolver maps a caller-typed category name to the stored category.
type CategoryResolver interface {
	Resolve(ctx context.Context, user *model.User, name string) (*model.Category, error)
}

// Service runs history requests for a user.
type Service struct {
	store        Store
	categories   CategoryResolver
	defaultLimit int
	logger       *slog.Logger
}

// NewService creates a history service. defaultLimit applies when a request
// leaves Limit at 0; pass 0 to leave such requests unbounded.
func NewService(store Store, categories CategoryResolver, defaultLimit int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:        store,
		categories:   categories,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// Prepare resolves category filters and composes the query without running it.
func (s *Service) Prepare(ctx context.Context, user *model.User, req Request) (Query, error) {
	if user == nil {
		return Query{}, fmt.Errorf("history requires a logged-in user")
	}

	filters := make([]Filter, len(req.Filters))
	copy(filters, req.Filters)
	for i, f := range filters {
		if f.Attribute != AttrCategory || f.Value.Text == "" {
			continue
		}
		cat, err := s.categories.Resolve(ctx, user, f.Value.Text)
		if err != nil {
			return Query{}, err
		}
		filters[i].Value.Text = cat.Name
	}
	req.Filters = filters

	if req.Limit == 0 {
		req.Limit = s.defaultLimit
	}
	return Compose(user.Username, req)
}

// Run composes req for user and returns the matching rows in sort order.
func (s *Service) Run(ctx context.Context, user *model.User, req Request) ([]model.Transaction, error) {
	q, err := s.Prepare(ctx, user, req)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.QueryTransactions(ctx, q)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("history query", "user", user.Username, "query", q.String(), "rows", len(rows))
	return rows, nil
}

// Totals returns per-category counts and sums over the rows matching req.
// Sorting and pagination in req are ignored.
func (s *Service) Totals(ctx context.Context, user *model.User, req Request) ([]model.CategoryTotal, error) {
	req.Sort = nil
	req.Limit = 0
	req.Offset = 0

	q, err := s.Prepare(ctx, user, req)
	if err != nil {
		return nil, err
	}
	q.Limit = 0
	return s.store.SumByCategory(ctx, q)
}
