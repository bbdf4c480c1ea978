// Package report renders ledger rows as aligned text tables. It only changes
// how rows look; order and values are kept as given.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/tally/internal/model"
)

// Alignment of a column's cells.
type Alignment int

// Column alignments.
const (
	AlignLeft Alignment = iota
	AlignRight
)

// dateWidth is the printable width of a YYYY-MM-DD date.
const dateWidth = 10

// Column describes one table column.
type Column struct {
	Header string
	Align  Alignment
	// Fixed, when non-zero, pins the width instead of measuring cells.
	Fixed int
}

// Table is a header row plus data rows with per-column widths.
type Table struct {
	Columns []Column
	Rows    [][]string
	Widths  []int
}

// NewTable creates a table and measures each column as the widest of its
// header and cells.
func NewTable(columns []Column, rows [][]string) Table {
	widths := make([]int, len(columns))
	for i, c := range columns {
		if c.Fixed > 0 {
			widths[i] = c.Fixed
			continue
		}
		widths[i] = lipgloss.Width(c.Header)
		for _, row := range rows {
			if i < len(row) {
				widths[i] = max(widths[i], lipgloss.Width(row[i]))
			}
		}
	}
	return Table{Columns: columns, Rows: rows, Widths: widths}
}

// HistoryColumns are the columns of a transaction listing.
var HistoryColumns = []Column{
	{Header: "Description"},
	{Header: "Amount", Align: AlignRight},
	{Header: "Date", Fixed: dateWidth},
	{Header: "Category"},
	{Header: "Memo"},
}

// HistoryTable lays out transactions in the order given.
func HistoryTable(txns []model.Transaction) Table {
	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, []string{
			t.Description,
			model.FormatCents(t.AmountCents),
			t.Date.Format(model.DateLayout),
			t.Category,
			t.Memo,
		})
	}
	return NewTable(HistoryColumns, rows)
}

// TotalsTable lays out per-category totals.
func TotalsTable(totals []model.CategoryTotal) Table {
	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []string{
			t.Category,
			strconv.Itoa(t.Count),
			model.FormatCents(t.TotalCents),
		})
	}
	return NewTable([]Column{
		{Header: "Category"},
		{Header: "Count", Align: AlignRight},
		{Header: "Total", Align: AlignRight},
	}, rows)
}

// CategoryTable lays out a user's categories.
func CategoryTable(categories []model.Category) Table {
	rows := make([][]string, 0, len(categories))
	for _, c := range categories {
		def := ""
		if c.IsDefault {
			def = "yes"
		}
		rows = append(rows, []string{c.Name, string(c.Kind), def})
	}
	return NewTable([]Column{
		{Header: "Name"},
		{Header: "Kind"},
		{Header: "Default"},
	}, rows)
}

// Render writes the table, styling the header with headerStyle. Columns are
// separated by two spaces and trailing padding is trimmed.
func (t Table) Render(w io.Writer, headerStyle lipgloss.Style) error {
	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Header
	}

	if _, err := fmt.Fprintln(w, headerStyle.Render(t.line(headers))); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if _, err := fmt.Fprintln(w, t.line(row)); err != nil {
			return err
		}
	}
	return nil
}

// String renders the table without styling.
func (t Table) String() string {
	var b strings.Builder
	_ = t.Render(&b, lipgloss.NewStyle())
	return b.String()
}

func (t Table) line(cells []string) string {
	parts := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = pad(cell, t.Widths[i], c.Align)
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

func pad(s string, width int, align Alignment) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if align == AlignRight {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}
