// Package category manages each user's case-insensitive category namespace.
package category

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
)

// Registry is the only path to category rows.
type Registry struct {
	store  service.Storage
	logger *slog.Logger
}

// NewRegistry creates a category registry. A nil logger falls back to
// slog.Default.
func NewRegistry(store service.Storage, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, logger: logger}
}

// List returns the live categories of user.
func (r *Registry) List(ctx context.Context, user *model.User) ([]model.Category, error) {
	return r.store.GetCategories(ctx, user.Username)
}

// Add creates a category for user. Names are compared case-insensitively;
// on a clash the DuplicateError carries the stored name. The new name keeps
// the caller's casing with its first letter upper-cased.
func (r *Registry) Add(ctx context.Context, user *model.User, name string, kind model.CategoryKind) (*model.Category, error) {
	name = model.NormalizeCategoryName(name)
	if err := model.ValidateCategoryName(name); err != nil {
		return nil, err
	}
	if kind == "" {
		kind = model.CategoryKindSpending
	}

	existing, err := r.store.GetCategoryByName(ctx, user.Username, name)
	switch {
	case err == nil:
		return nil, &common.DuplicateError{Kind: "category", Existing: existing.Name}
	case !errors.Is(err, common.ErrNotFound):
		return nil, err
	}

	cat := &model.Category{Owner: user.Username, Name: name, Kind: kind}
	if err := r.store.CreateCategory(ctx, cat); err != nil {
		return nil, err
	}

	r.logger.Info("category added", "owner", user.Username, "name", name, "kind", kind)
	return r.store.GetCategoryByName(ctx, user.Username, name)
}

// Resolve finds user's category by case-insensitive name.
func (r *Registry) Resolve(ctx context.Context, user *model.User, name string) (*model.Category, error) {
	name = model.NormalizeCategoryName(name)
	if name == "" {
		return nil, common.NewValidationError("category", "must not be empty")
	}
	return r.store.GetCategoryByName(ctx, user.Username, name)
}

// Remove deletes a non-default category that no transaction references.
// Unknown and default names yield a NotFoundError.
func (r *Registry) Remove(ctx context.Context, user *model.User, name string) error {
	cat, err := r.Resolve(ctx, user, name)
	if err != nil {
		return err
	}
	if cat.IsDefault {
		return &common.NotFoundError{Kind: "removable category", Key: cat.Name}
	}

	used, err := r.store.CountTransactionsByCategory(ctx, user.Username, cat.Name)
	if err != nil {
		return err
	}
	if used > 0 {
		return common.NewValidationError("category", "%s is used by %d transaction(s)", cat.Name, used)
	}

	if err := r.store.DeleteCategory(ctx, user.Username, cat.Name); err != nil {
		return err
	}
	r.logger.Info("category removed", "owner", user.Username, "name", cat.Name)
	return nil
}
