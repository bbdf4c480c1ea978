package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// GetCategories returns all categories of owner, ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context, owner string) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getCategoriesTx(ctx, s.db, owner)
}

func (s *SQLiteStorage) getCategoriesTx(ctx context.Context, q queryable, owner string) ([]model.Category, error) {
	query := `
		SELECT owner, name, kind, is_default, created_at
		FROM categories
		WHERE owner = ?
		ORDER BY name COLLATE NOCASE`

	rows, err := q.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, persistErr("query categories", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, persistErr("scan category", err)
		}
		categories = append(categories, *cat)
	}

	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate categories", err)
	}

	slog.Debug("retrieved categories", "owner", owner, "count", len(categories))
	return categories, nil
}

// GetCategoryByName returns the category of owner whose name matches
// case-insensitively, with its stored casing.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, owner, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getCategoryByNameTx(ctx, s.db, owner, name)
}

func (s *SQLiteStorage) getCategoryByNameTx(ctx context.Context, q queryable, owner, name string) (*model.Category, error) {
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, `
		SELECT owner, name, kind, is_default, created_at
		FROM categories
		WHERE owner = ? AND name = ? COLLATE NOCASE`, owner, name)

	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &common.NotFoundError{Kind: "category", Key: name}
	}
	if err != nil {
		return nil, persistErr("get category", err)
	}
	return cat, nil
}

// CreateCategory inserts a category. A case-insensitive name clash yields a
// DuplicateError carrying the stored name.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}
	return s.createCategoryTx(ctx, s.db, category)
}

func (s *SQLiteStorage) createCategoryTx(ctx context.Context, q queryable, category *model.Category) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO categories (owner, name, kind, is_default)
		VALUES (?, ?, ?, ?)`,
		category.Owner, category.Name, string(category.Kind), category.IsDefault,
	)
	if isUniqueViolation(err) {
		existing := category.Name
		if found, getErr := s.getCategoryByNameTx(ctx, q, category.Owner, category.Name); getErr == nil {
			existing = found.Name
		}
		return &common.DuplicateError{Kind: "category", Existing: existing}
	}
	if isForeignKeyViolation(err) {
		return &common.NotFoundError{Kind: "user", Key: category.Owner}
	}
	if err != nil {
		return persistErr("create category", err)
	}

	slog.Debug("created category", "owner", category.Owner, "name", category.Name, "kind", category.Kind)
	return nil
}

// DeleteCategory removes a non-default category. Default categories and
// unknown names yield a NotFoundError; a category still referenced by a
// transaction is rejected by the foreign key.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, owner, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.deleteCategoryTx(ctx, s.db, owner, name)
}

func (s *SQLiteStorage) deleteCategoryTx(ctx context.Context, q queryable, owner, name string) error {
	res, err := q.ExecContext(ctx, `
		DELETE FROM categories
		WHERE owner = ? AND name = ? COLLATE NOCASE AND is_default = 0`, owner, name)
	if isForeignKeyViolation(err) {
		return common.NewValidationError("category", "%s is used by existing transactions", name)
	}
	if err != nil {
		return persistErr("delete category", err)
	}
	return expectOneRow(res, "removable category", name)
}

// CountTransactionsByCategory counts owner's transactions in the named category.
func (s *SQLiteStorage) CountTransactionsByCategory(ctx context.Context, owner, name string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.countTransactionsByCategoryTx(ctx, s.db, owner, name)
}

func (s *SQLiteStorage) countTransactionsByCategoryTx(ctx context.Context, q queryable, owner, name string) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions
		WHERE owner = ? AND category = ? COLLATE NOCASE`, owner, name).Scan(&count)
	if err != nil {
		return 0, persistErr("count transactions", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*model.Category, error) {
	var (
		cat  model.Category
		kind string
	)
	if err := row.Scan(&cat.Owner, &cat.Name, &kind, &cat.IsDefault, &cat.CreatedAt); err != nil {
		return nil, err
	}
	cat.Kind = model.CategoryKind(kind)
	return &cat, nil
}
