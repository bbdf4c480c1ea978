package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Veraticus/tally/internal/common"
)

// CategoryKind indicates whether a category holds deposits or spending.
type CategoryKind string

const (
	// CategoryKindSpending is used by withdrawals.
	CategoryKindSpending CategoryKind = "spending"
	// CategoryKindDeposit is reserved for positive-amount transactions.
	CategoryKindDeposit CategoryKind = "deposit"
)

// MaxCategoryNameLength bounds category names.
const MaxCategoryNameLength = 30

// Category is a user-scoped label, identified by (Owner, Name).
type Category struct {
	CreatedAt time.Time
	Owner     string
	Name      string
	Kind      CategoryKind
	IsDefault bool
}

// IsDeposit reports whether the category is deposit-class.
func (c Category) IsDeposit() bool {
	return c.Kind == CategoryKindDeposit
}

// CategoryTotal aggregates the transactions of one category.
type CategoryTotal struct {
	Category   string
	Count      int
	TotalCents int64
}

// DefaultCategories returns the categories every new account starts with.
func DefaultCategories(owner string) []Category {
	return []Category{
		{Owner: owner, Name: "N/A", Kind: CategoryKindSpending, IsDefault: true},
		{Owner: owner, Name: "Misc", Kind: CategoryKindSpending, IsDefault: true},
		{Owner: owner, Name: "Deposit", Kind: CategoryKindDeposit, IsDefault: true},
	}
}

// ParseCategoryKind parses a kind name, defaulting to spending.
func ParseCategoryKind(s string) (CategoryKind, error) {
	switch CategoryKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", CategoryKindSpending:
		return CategoryKindSpending, nil
	case CategoryKindDeposit:
		return CategoryKindDeposit, nil
	default:
		return "", common.NewValidationError("category kind", "must be %q or %q", CategoryKindSpending, CategoryKindDeposit)
	}
}

// NormalizeCategoryName trims the name and upper-cases its first letter,
// keeping the rest of the caller's casing.
func NormalizeCategoryName(name string) string {
	name = strings.TrimSpace(name)
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// ValidateCategoryName checks the bounds of a category name.
func ValidateCategoryName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return common.NewValidationError("category", "must not be empty")
	case utf8.RuneCountInString(name) > MaxCategoryNameLength:
		return common.NewValidationError("category", "must be at most %d characters", MaxCategoryNameLength)
	}
	return nil
}

func (c Category) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Kind)
}
