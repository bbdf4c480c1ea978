// Package history turns ad-hoc filter and sort criteria into a composed,
// owner-scoped query over a user's transactions.
package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// Attribute names a filterable and sortable transaction column.
type Attribute string

// Filterable attributes.
const (
	AttrDescription Attribute = "description"
	AttrDate        Attribute = "date"
	AttrAmount      Attribute = "amount"
	AttrCategory    Attribute = "category"
	AttrMemo        Attribute = "memo"
)

// Attributes lists every attribute in canonical group order.
var Attributes = []Attribute{AttrDescription, AttrDate, AttrAmount, AttrCategory, AttrMemo}

// ParseAttribute maps a case-insensitive name to an Attribute.
func ParseAttribute(s string) (Attribute, error) {
	want := Attribute(strings.ToLower(strings.TrimSpace(s)))
	for _, a := range Attributes {
		if a == want {
			return a, nil
		}
	}
	return "", common.NewValidationError("attribute", "unknown attribute %q", s)
}

// ranged reports whether the attribute supports range operators.
func (a Attribute) ranged() bool {
	return a == AttrDate || a == AttrAmount
}

// Operator is the comparison applied by a filter.
type Operator string

// Supported operators.
const (
	OpEqual   Operator = "="
	OpAtLeast Operator = ">="
	OpAtMost  Operator = "<="
	OpBetween Operator = "between"
)

// ParseOperator maps an operator token to an Operator.
func ParseOperator(s string) (Operator, error) {
	switch op := Operator(strings.ToLower(strings.TrimSpace(s))); op {
	case OpEqual, OpAtLeast, OpAtMost, OpBetween:
		return op, nil
	case "==":
		return OpEqual, nil
	default:
		return "", common.NewValidationError("operator", "unknown operator %q", s)
	}
}

// Value carries a filter operand. Only the fields matching the filter's
// attribute are read: Text for description, category and memo; Cents and
// ToCents for amount; Date and ToDate for date. The To fields are used by
// OpBetween only.
type Value struct {
	Date    time.Time
	ToDate  time.Time
	Text    string
	Cents   int64
	ToCents int64
}

// Filter is one (attribute, operator, value) clause.
type Filter struct {
	Attribute Attribute
	Operator  Operator
	Value     Value
}

// TextEquals matches description, category or memo exactly.
func TextEquals(attr Attribute, text string) Filter {
	return Filter{Attribute: attr, Operator: OpEqual, Value: Value{Text: text}}
}

// AmountEquals matches an exact signed amount.
func AmountEquals(cents int64) Filter {
	return Filter{Attribute: AttrAmount, Operator: OpEqual, Value: Value{Cents: cents}}
}

// AmountAtLeast matches amounts >= cents.
func AmountAtLeast(cents int64) Filter {
	return Filter{Attribute: AttrAmount, Operator: OpAtLeast, Value: Value{Cents: cents}}
}

// AmountAtMost matches amounts <= cents.
func AmountAtMost(cents int64) Filter {
	return Filter{Attribute: AttrAmount, Operator: OpAtMost, Value: Value{Cents: cents}}
}

// AmountBetween matches the inclusive range [lower, upper].
func AmountBetween(lower, upper int64) Filter {
	return Filter{Attribute: AttrAmount, Operator: OpBetween, Value: Value{Cents: lower, ToCents: upper}}
}

// DateOn matches a single calendar day.
func DateOn(day time.Time) Filter {
	return Filter{Attribute: AttrDate, Operator: OpEqual, Value: Value{Date: model.CalendarDate(day)}}
}

// DateFrom matches days on or after from.
func DateFrom(from time.Time) Filter {
	return Filter{Attribute: AttrDate, Operator: OpAtLeast, Value: Value{Date: model.CalendarDate(from)}}
}

// DateUntil matches days on or before to.
func DateUntil(to time.Time) Filter {
	return Filter{Attribute: AttrDate, Operator: OpAtMost, Value: Value{Date: model.CalendarDate(to)}}
}

// DateBetween matches the inclusive range [from, to].
func DateBetween(from, to time.Time) Filter {
	return Filter{
		Attribute: AttrDate,
		Operator:  OpBetween,
		Value:     Value{Date: model.CalendarDate(from), ToDate: model.CalendarDate(to)},
	}
}

// ParseFilter parses the textual form "attribute op value", for example
// "amount >= 12.50", "category = Food" or "date between 2024-01-01 2024-01-31".
func ParseFilter(s string) (Filter, error) {
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return Filter{}, common.NewValidationError("filter", "%q must look like \"attribute op value\"", s)
	}

	attr, err := ParseAttribute(fields[0])
	if err != nil {
		return Filter{}, err
	}
	op, err := ParseOperator(fields[1])
	if err != nil {
		return Filter{}, err
	}
	operands := fields[2:]

	f := Filter{Attribute: attr, Operator: op}
	if !attr.ranged() {
		// text operands may contain spaces
		f.Value.Text = strings.Join(operands, " ")
		return f, f.validate()
	}

	want := 1
	if op == OpBetween {
		want = 2
	}
	if len(operands) != want {
		return Filter{}, common.NewValidationError(string(attr), "%s expects %d operand(s), got %d", op, want, len(operands))
	}

	switch attr {
	case AttrAmount:
		if f.Value.Cents, err = model.ParseCents(operands[0]); err != nil {
			return Filter{}, err
		}
		if want == 2 {
			if f.Value.ToCents, err = model.ParseCents(operands[1]); err != nil {
				return Filter{}, err
			}
		}
	case AttrDate:
		if f.Value.Date, err = model.ParseDate(operands[0]); err != nil {
			return Filter{}, common.NewValidationError(string(attr), "%v", err)
		}
		if want == 2 {
			if f.Value.ToDate, err = model.ParseDate(operands[1]); err != nil {
				return Filter{}, common.NewValidationError(string(attr), "%v", err)
			}
		}
	}
	return f, f.validate()
}

func (f Filter) validate() error {
	known := false
	for _, a := range Attributes {
		if f.Attribute == a {
			known = true
			break
		}
	}
	if !known {
		return common.NewValidationError("attribute", "unknown attribute %q", f.Attribute)
	}

	switch f.Operator {
	case OpEqual:
	case OpAtLeast, OpAtMost, OpBetween:
		if !f.Attribute.ranged() {
			return common.NewValidationError(string(f.Attribute), "only supports exact match, not %s", f.Operator)
		}
	default:
		return common.NewValidationError(string(f.Attribute), "unknown operator %q", f.Operator)
	}

	switch f.Attribute {
	case AttrDescription, AttrCategory:
		if strings.TrimSpace(f.Value.Text) == "" {
			return common.NewValidationError(string(f.Attribute), "filter value must not be empty")
		}
	case AttrDate:
		if f.Value.Date.IsZero() || (f.Operator == OpBetween && f.Value.ToDate.IsZero()) {
			return common.NewValidationError(string(f.Attribute), "filter date must be set")
		}
		if f.Operator == OpBetween && f.Value.Date.After(f.Value.ToDate) {
			return common.NewValidationError(string(f.Attribute), "range start %s is after end %s",
				f.Value.Date.Format(model.DateLayout), f.Value.ToDate.Format(model.DateLayout))
		}
	case AttrAmount:
		if f.Operator == OpBetween && f.Value.Cents > f.Value.ToCents {
			return common.NewValidationError(string(f.Attribute), "range lower bound %s is above upper bound %s",
				model.FormatCents(f.Value.Cents), model.FormatCents(f.Value.ToCents))
		}
	}
	return nil
}

func (f Filter) String() string {
	switch f.Attribute {
	case AttrAmount:
		if f.Operator == OpBetween {
			return fmt.Sprintf("amount between %s %s", model.FormatCents(f.Value.Cents), model.FormatCents(f.Value.ToCents))
		}
		return fmt.Sprintf("amount %s %s", f.Operator, model.FormatCents(f.Value.Cents))
	case AttrDate:
		if f.Operator == OpBetween {
			return fmt.Sprintf("date between %s %s", f.Value.Date.Format(model.DateLayout), f.Value.ToDate.Format(model.DateLayout))
		}
		return fmt.Sprintf("date %s %s", f.Operator, f.Value.Date.Format(model.DateLayout))
	default:
		return fmt.Sprintf("%s %s %q", f.Attribute, f.Operator, f.Value.Text)
	}
}
