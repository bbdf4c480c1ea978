package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/history"
	"github.com/Veraticus/tally/internal/model"
)

const transactionColumns = `t.id, t.owner, t.description, t.amount_cents, t.day, t.memo, t.category, t.created_at`

// InsertTransaction appends one transaction row and fills txn.CreatedAt from
// the stored row. It does not touch the owner's balance; the ledger poster
// does that in the same unit of work.
func (s *SQLiteStorage) InsertTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return s.insertTransactionTx(ctx, s.db, txn)
}

func (s *SQLiteStorage) insertTransactionTx(ctx context.Context, q queryable, txn *model.Transaction) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions (id, owner, description, amount_cents, day, memo, category)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.Owner,
		txn.Description,
		txn.AmountCents,
		txn.Date.Format(model.DateLayout),
		txn.Memo,
		txn.Category,
	)
	switch {
	case isUniqueViolation(err):
		return &common.DuplicateError{Kind: "transaction", Existing: txn.ID}
	case isForeignKeyViolation(err):
		return &common.NotFoundError{Kind: "category", Key: txn.Category}
	case err != nil:
		return persistErr("insert transaction", err)
	}

	err = q.QueryRowContext(ctx, `SELECT created_at FROM transactions WHERE id = ?`, txn.ID).Scan(&txn.CreatedAt)
	if err != nil {
		return persistErr("read inserted transaction", err)
	}

	slog.Debug("inserted transaction", "id", txn.ID, "owner", txn.Owner, "amount_cents", txn.AmountCents)
	return nil
}

// QueryTransactions runs a composed history query.
func (s *SQLiteStorage) QueryTransactions(ctx context.Context, q history.Query) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryTransactionsTx(ctx, s.db, q)
}

func (s *SQLiteStorage) queryTransactionsTx(ctx context.Context, q queryable, hq history.Query) ([]model.Transaction, error) {
	if err := validateString(hq.Owner, "owner"); err != nil {
		return nil, err
	}

	query, args, err := renderHistoryQuery(hq)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistErr("query transactions", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, persistErr("scan transaction", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate transactions", err)
	}
	return transactions, nil
}

// SumTransactions returns the sum of every amount owned by owner.
func (s *SQLiteStorage) SumTransactions(ctx context.Context, owner string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.sumTransactionsTx(ctx, s.db, owner)
}

func (s *SQLiteStorage) sumTransactionsTx(ctx context.Context, q queryable, owner string) (int64, error) {
	var total int64
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE owner = ?`, owner,
	).Scan(&total)
	if err != nil {
		return 0, persistErr("sum transactions", err)
	}
	return total, nil
}

// SumByCategory aggregates the rows matched by q per category.
func (s *SQLiteStorage) SumByCategory(ctx context.Context, q history.Query) ([]model.CategoryTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.sumByCategoryTx(ctx, s.db, q)
}

func (s *SQLiteStorage) sumByCategoryTx(ctx context.Context, q queryable, hq history.Query) ([]model.CategoryTotal, error) {
	if err := validateString(hq.Owner, "owner"); err != nil {
		return nil, err
	}

	query, args, err := renderTotalsQuery(hq)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistErr("sum by category", err)
	}
	defer func() { _ = rows.Close() }()

	var totals []model.CategoryTotal
	for rows.Next() {
		var t model.CategoryTotal
		if err := rows.Scan(&t.Category, &t.Count, &t.TotalCents); err != nil {
			return nil, persistErr("scan category total", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate category totals", err)
	}
	return totals, nil
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		txn model.Transaction
		day string
	)
	if err := row.Scan(
		&txn.ID,
		&txn.Owner,
		&txn.Description,
		&txn.AmountCents,
		&day,
		&txn.Memo,
		&txn.Category,
		&txn.CreatedAt,
	); err != nil {
		return nil, err
	}

	date, err := time.Parse(model.DateLayout, day)
	if err != nil {
		return nil, err
	}
	txn.Date = date
	return &txn, nil
}

// queryable is an interface satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
