package model

import (
	"fmt"
	"time"
)

// Field limits for transactions.
const (
	MaxDescriptionLength = 20
	MaxMemoLength        = 20
)

// DateLayout is the ISO-8601 calendar date layout used for storage and display.
const DateLayout = "2006-01-02"

// Transaction is a single posted ledger entry. Values are produced by
// TransactionBuilder.Build and never changed after posting; a mistake is
// corrected by posting a compensating transaction.
type Transaction struct {
	Date        time.Time
	CreatedAt   time.Time
	ID          string
	Owner       string
	Description string
	Memo        string
	Category    string
	AmountCents int64
}

// IsDeposit reports whether the transaction adds money to the account.
func (t Transaction) IsDeposit() bool {
	return t.AmountCents > 0
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s %s %s [%s]", t.Date.Format(DateLayout), t.Description, FormatCents(t.AmountCents), t.Category)
}

// CalendarDate truncates t to its calendar day in UTC.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO-8601 calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}
