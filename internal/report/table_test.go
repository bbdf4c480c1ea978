package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tally/internal/model"
)

func sampleTransactions() []model.Transaction {
	return []model.Transaction{
		{Description: "Paycheck", AmountCents: 10000, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Category: "Deposit"},
		{Description: "Groceries", AmountCents: -4250, Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Category: "Food", Memo: "weekly"},
	}
}

func TestHistoryTable_Widths(t *testing.T) {
	table := HistoryTable(sampleTransactions())

	assert.Equal(t, []int{
		len("Description"), // header is the widest description cell
		len("100.00"),
		10,
		len("Category"),
		len("weekly"),
	}, table.Widths)
}

func TestHistoryTable_Render(t *testing.T) {
	out := HistoryTable(sampleTransactions()).String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "Description  Amount  Date        Category  Memo", lines[0])
	assert.Equal(t, "Paycheck     100.00  2024-01-01  Deposit", lines[1])
	assert.Equal(t, "Groceries    -42.50  2024-01-03  Food      weekly", lines[2])
}

func TestHistoryTable_KeepsOrderAndValues(t *testing.T) {
	txns := sampleTransactions()
	txns[0], txns[1] = txns[1], txns[0]

	table := HistoryTable(txns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Groceries", table.Rows[0][0])
	assert.Equal(t, "-42.50", table.Rows[0][1])
	assert.Equal(t, "Paycheck", table.Rows[1][0])
}

func TestHistoryTable_Empty(t *testing.T) {
	out := HistoryTable(nil).String()
	assert.Equal(t, "Description  Amount  Date        Category  Memo\n", out)
}

func TestTable_WideRunes(t *testing.T) {
	table := NewTable([]Column{{Header: "Name"}, {Header: "N"}}, [][]string{{"日本", "1"}, {"ab", "2"}})
	assert.Equal(t, 4, table.Widths[0])
	assert.Equal(t, "Name  N\n日本  1\nab    2\n", table.String())
}

func TestTotalsTable(t *testing.T) {
	out := TotalsTable([]model.CategoryTotal{
		{Category: "Food", Count: 2, TotalCents: -4950},
		{Category: "Misc", Count: 11, TotalCents: -1500},
	}).String()

	assert.Equal(t, "Category  Count   Total\nFood          2  -49.50\nMisc         11  -15.00\n", out)
}
