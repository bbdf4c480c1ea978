package storage

import (
	"fmt"
	"strings"

	"github.com/Veraticus/tally/internal/history"
	"github.com/Veraticus/tally/internal/model"
)

// historyColumns maps query attributes to transaction columns. Rendered SQL
// only ever contains these names; every operand is a bound parameter.
var historyColumns = map[history.Attribute]string{
	history.AttrDescription: "t.description",
	history.AttrDate:        "t.day",
	history.AttrAmount:      "t.amount_cents",
	history.AttrCategory:    "t.category",
	history.AttrMemo:        "t.memo",
}

// renderWhere renders the grouped predicate: clauses within a group are
// ORed, groups are ANDed, and the owner scope is ANDed last.
func renderWhere(q history.Query) (string, []any, error) {
	var (
		parts []string
		args  []any
	)
	for _, g := range q.Groups {
		col, ok := historyColumns[g.Attribute]
		if !ok {
			return "", nil, fmt.Errorf("no column for attribute %q", g.Attribute)
		}
		if len(g.Clauses) == 0 {
			continue
		}

		clauses := make([]string, 0, len(g.Clauses))
		for _, c := range g.Clauses {
			sqlText, clauseArgs, err := renderClause(col, c)
			if err != nil {
				return "", nil, err
			}
			clauses = append(clauses, sqlText)
			args = append(args, clauseArgs...)
		}
		parts = append(parts, "("+strings.Join(clauses, " OR ")+")")
	}

	parts = append(parts, "t.owner = ?")
	args = append(args, q.Owner)
	return strings.Join(parts, " AND "), args, nil
}

func renderClause(col string, c history.Filter) (string, []any, error) {
	lo, hi := operands(c)
	switch c.Operator {
	case history.OpEqual:
		return col + " = ?", []any{lo}, nil
	case history.OpAtLeast:
		return col + " >= ?", []any{lo}, nil
	case history.OpAtMost:
		return col + " <= ?", []any{lo}, nil
	case history.OpBetween:
		return "(" + col + " >= ? AND " + col + " <= ?)", []any{lo, hi}, nil
	default:
		return "", nil, fmt.Errorf("unsupported operator %q", c.Operator)
	}
}

// operands extracts the bound values for a clause in storage form.
func operands(c history.Filter) (any, any) {
	switch c.Attribute {
	case history.AttrAmount:
		return c.Value.Cents, c.Value.ToCents
	case history.AttrDate:
		return c.Value.Date.Format(model.DateLayout), c.Value.ToDate.Format(model.DateLayout)
	default:
		return c.Value.Text, nil
	}
}

// renderOrder renders the sort keys followed by insertion order, so rows
// that tie on every key still come back in a stable order.
func renderOrder(q history.Query) (string, error) {
	keys := make([]string, 0, len(q.Sort)+1)
	for _, k := range q.Sort {
		col, ok := historyColumns[k.Attribute]
		if !ok {
			return "", fmt.Errorf("no column for sort attribute %q", k.Attribute)
		}
		if k.Descending {
			keys = append(keys, col+" DESC")
		} else {
			keys = append(keys, col+" ASC")
		}
	}
	keys = append(keys, "t.rowid ASC")
	return strings.Join(keys, ", "), nil
}

// renderPage renders LIMIT/OFFSET. SQLite needs a LIMIT before OFFSET, so an
// offset without a limit uses LIMIT -1.
func renderPage(q history.Query) (string, []any) {
	switch {
	case q.Limit > 0 && q.Offset > 0:
		return " LIMIT ? OFFSET ?", []any{q.Limit, q.Offset}
	case q.Limit > 0:
		return " LIMIT ?", []any{q.Limit}
	case q.Offset > 0:
		return " LIMIT -1 OFFSET ?", []any{q.Offset}
	default:
		return "", nil
	}
}

// renderHistoryQuery renders the full row query for q.
func renderHistoryQuery(q history.Query) (string, []any, error) {
	where, args, err := renderWhere(q)
	if err != nil {
		return "", nil, err
	}
	order, err := renderOrder(q)
	if err != nil {
		return "", nil, err
	}
	page, pageArgs := renderPage(q)

	query := `SELECT ` + transactionColumns + `
		FROM transactions t
		WHERE ` + where + `
		ORDER BY ` + order + page
	return query, append(args, pageArgs...), nil
}

// renderTotalsQuery renders the per-category aggregate for q's predicate.
func renderTotalsQuery(q history.Query) (string, []any, error) {
	where, args, err := renderWhere(q)
	if err != nil {
		return "", nil, err
	}

	query := `SELECT t.category, COUNT(*), COALESCE(SUM(t.amount_cents), 0)
		FROM transactions t
		WHERE ` + where + `
		GROUP BY t.category
		ORDER BY t.category COLLATE NOCASE`
	return query, args, nil
}
