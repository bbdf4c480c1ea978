package model

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/tally/internal/common"
)

// Builder field names, in the order problems are reported.
const (
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldDate        = "date"
	FieldCategory    = "category"
	FieldMemo        = "memo"
)

var builderFields = []string{FieldDescription, FieldAmount, FieldDate, FieldCategory, FieldMemo}

// TransactionBuilder accumulates the fields of a new transaction. Every setter
// validates its input immediately and records a problem for that field;
// setting the field again replaces the problem. Build fails atomically if any
// problem remains.
//
// The amount sign always follows the deposit flag: deposits are positive,
// withdrawals negative. Flipping the flag re-signs an amount already set.
type TransactionBuilder struct {
	today       time.Time
	date        time.Time
	category    *Category
	problems    map[string]string
	description string
	memo        string
	amountCents int64
	deposit     bool
	hasDesc     bool
	hasAmount   bool
	hasDate     bool
}

// NewTransactionBuilder starts a withdrawal draft. today bounds the date field.
func NewTransactionBuilder(today time.Time) *TransactionBuilder {
	return &TransactionBuilder{
		today:    CalendarDate(today),
		problems: make(map[string]string),
	}
}

// WithDescription sets the description.
func (b *TransactionBuilder) WithDescription(description string) *TransactionBuilder {
	description = strings.TrimSpace(description)
	switch {
	case description == "":
		b.problems[FieldDescription] = "must not be empty"
		return b
	case utf8.RuneCountInString(description) > MaxDescriptionLength:
		b.problems[FieldDescription] = "must be at most 20 characters"
		return b
	}
	b.description = description
	b.hasDesc = true
	delete(b.problems, FieldDescription)
	return b
}

// WithAmountCents sets the magnitude of the amount; the sign comes from the
// deposit flag, not from cents.
func (b *TransactionBuilder) WithAmountCents(cents int64) *TransactionBuilder {
	switch {
	case cents == 0:
		b.problems[FieldAmount] = "must be non-zero"
		return b
	case cents == math.MinInt64:
		b.problems[FieldAmount] = "is out of range"
		return b
	}
	if cents < 0 {
		cents = -cents
	}
	b.amountCents = b.signed(cents)
	b.hasAmount = true
	delete(b.problems, FieldAmount)
	return b
}

// AsDeposit marks the draft as a deposit (true) or withdrawal (false).
func (b *TransactionBuilder) AsDeposit(deposit bool) *TransactionBuilder {
	b.deposit = deposit
	if b.hasAmount {
		b.amountCents = b.signed(b.amountCents)
	}
	b.checkPairing()
	return b
}

// WithDate sets the calendar date, which must not be after today.
func (b *TransactionBuilder) WithDate(date time.Time) *TransactionBuilder {
	if date.IsZero() {
		b.problems[FieldDate] = "must be set"
		return b
	}
	date = CalendarDate(date)
	if date.After(b.today) {
		b.problems[FieldDate] = "must not be after " + b.today.Format(DateLayout)
		return b
	}
	b.date = date
	b.hasDate = true
	delete(b.problems, FieldDate)
	return b
}

// WithCategory sets the category. It must be a stored category whose kind
// matches the deposit flag.
func (b *TransactionBuilder) WithCategory(category Category) *TransactionBuilder {
	if category.Name == "" || category.Owner == "" {
		b.category = nil
		b.problems[FieldCategory] = "must reference an existing category"
		return b
	}
	b.category = &category
	delete(b.problems, FieldCategory)
	b.checkPairing()
	return b
}

// WithMemo sets the optional memo.
func (b *TransactionBuilder) WithMemo(memo string) *TransactionBuilder {
	if utf8.RuneCountInString(memo) > MaxMemoLength {
		b.problems[FieldMemo] = "must be at most 20 characters"
		return b
	}
	b.memo = memo
	delete(b.problems, FieldMemo)
	return b
}

// IsDeposit reports the current deposit flag.
func (b *TransactionBuilder) IsDeposit() bool {
	return b.deposit
}

// AmountCents returns the signed amount set so far.
func (b *TransactionBuilder) AmountCents() int64 {
	return b.amountCents
}

// FieldError returns the pending problem for field, or nil.
func (b *TransactionBuilder) FieldError(field string) error {
	msg, ok := b.problems[field]
	if !ok {
		return nil
	}
	return common.NewValidationError(field, "%s", msg)
}

// Build returns the finished transaction or a ValidationError listing every
// remaining problem, including unset required fields.
func (b *TransactionBuilder) Build() (Transaction, error) {
	b.checkPairing()

	verr := &common.ValidationError{}
	for _, field := range builderFields {
		if msg, ok := b.problems[field]; ok {
			verr.Add(field, "%s", msg)
			continue
		}
		if b.missing(field) {
			verr.Add(field, "is required")
		}
	}
	if err := verr.OrNil(); err != nil {
		return Transaction{}, err
	}

	return Transaction{
		Owner:       b.category.Owner,
		Description: b.description,
		AmountCents: b.amountCents,
		Date:        b.date,
		Memo:        b.memo,
		Category:    b.category.Name,
	}, nil
}

func (b *TransactionBuilder) missing(field string) bool {
	switch field {
	case FieldDescription:
		return !b.hasDesc
	case FieldAmount:
		return !b.hasAmount
	case FieldDate:
		return !b.hasDate
	case FieldCategory:
		return b.category == nil
	default:
		return false
	}
}

func (b *TransactionBuilder) signed(cents int64) int64 {
	if cents < 0 {
		cents = -cents
	}
	if b.deposit {
		return cents
	}
	return -cents
}

func (b *TransactionBuilder) checkPairing() {
	if b.category == nil {
		return
	}
	switch {
	case b.deposit && !b.category.IsDeposit():
		b.problems[FieldCategory] = "deposits must use a deposit category, not " + b.category.Name
	case !b.deposit && b.category.IsDeposit():
		b.problems[FieldCategory] = "withdrawals cannot use the deposit category " + b.category.Name
	default:
		delete(b.problems, FieldCategory)
	}
}
