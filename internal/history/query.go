package history

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/tally/internal/common"
)

// MaxSortKeys bounds the number of sort attributes in one request.
const MaxSortKeys = 5

// SortKey orders results by one attribute.
type SortKey struct {
	Attribute  Attribute
	Descending bool
}

// ParseSortKey parses "date", "date desc", "amount asc" or "-amount".
func ParseSortKey(s string) (SortKey, error) {
	s = strings.TrimSpace(s)
	var key SortKey
	if strings.HasPrefix(s, "-") {
		key.Descending = true
		s = s[1:]
	}

	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return SortKey{}, common.NewValidationError("sort", "%q must look like \"attribute [asc|desc]\"", s)
	}
	attr, err := ParseAttribute(fields[0])
	if err != nil {
		return SortKey{}, err
	}
	key.Attribute = attr

	if len(fields) == 2 {
		switch strings.ToLower(fields[1]) {
		case "asc":
		case "desc":
			key.Descending = true
		default:
			return SortKey{}, common.NewValidationError("sort", "unknown direction %q", fields[1])
		}
	}
	return key, nil
}

func (k SortKey) String() string {
	if k.Descending {
		return string(k.Attribute) + " DESC"
	}
	return string(k.Attribute) + " ASC"
}

// Request is the caller's ad-hoc history question. Limit 0 means unbounded.
type Request struct {
	Filters []Filter
	Sort    []SortKey
	Limit   int
	Offset  int
}

// Group is the OR-combination of every clause that targets one attribute.
type Group struct {
	Attribute Attribute
	Clauses   []Filter
}

// Query is a validated, composed history query. Groups are ANDed in order
// and the owner scope is ANDed after them.
type Query struct {
	Owner  string
	Groups []Group
	Sort   []SortKey
	Limit  int
	Offset int
}

// String renders the predicate in a readable form for diagnostics.
func (q Query) String() string {
	parts := make([]string, 0, len(q.Groups)+1)
	for _, g := range q.Groups {
		clauses := make([]string, 0, len(g.Clauses))
		for _, c := range g.Clauses {
			clauses = append(clauses, c.String())
		}
		parts = append(parts, "("+strings.Join(clauses, " OR ")+")")
	}
	parts = append(parts, fmt.Sprintf("owner = %q", q.Owner))

	keys := make([]string, 0, len(q.Sort))
	for _, k := range q.Sort {
		keys = append(keys, k.String())
	}

	var b strings.Builder
	b.WriteString(strings.Join(parts, " AND "))
	b.WriteString(" ORDER BY ")
	b.WriteString(strings.Join(keys, ", "))
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", q.Offset)
	}
	return b.String()
}

// Compose validates req and groups its filters for owner. Every filter is
// consumed into exactly one group; attributes without filters produce no
// group. A >= bound followed by a <= bound on the same attribute becomes
// one range clause. When no sort key names the date, date
// ascending is appended so repeated queries return rows in the same order.
func Compose(owner string, req Request) (Query, error) {
	if strings.TrimSpace(owner) == "" {
		return Query{}, common.NewValidationError("owner", "must not be empty")
	}
	if err := validateRequest(req); err != nil {
		return Query{}, err
	}

	remaining := append([]Filter(nil), req.Filters...)
	groups := make([]Group, 0, len(Attributes))
	for _, attr := range Attributes {
		var matched []Filter
		matched, remaining = take(remaining, attr)
		if len(matched) == 0 {
			continue
		}
		clauses, err := mergeBounds(attr, matched)
		if err != nil {
			return Query{}, err
		}
		groups = append(groups, Group{Attribute: attr, Clauses: clauses})
	}
	if len(remaining) != 0 {
		return Query{}, common.NewValidationError("attribute", "unknown attribute %q", remaining[0].Attribute)
	}

	return Query{
		Owner:  owner,
		Groups: groups,
		Sort:   withDefaultSort(req.Sort),
		Limit:  req.Limit,
		Offset: req.Offset,
	}, nil
}

func validateRequest(req Request) error {
	verr := &common.ValidationError{}
	for _, f := range req.Filters {
		if err := f.validate(); err != nil {
			var fe *common.ValidationError
			if errors.As(err, &fe) {
				verr.Problems = append(verr.Problems, fe.Problems...)
			}
		}
	}

	if len(req.Sort) > MaxSortKeys {
		verr.Add("sort", "at most %d sort keys are allowed, got %d", MaxSortKeys, len(req.Sort))
	}
	seen := make(map[Attribute]bool, len(req.Sort))
	for _, k := range req.Sort {
		if _, err := ParseAttribute(string(k.Attribute)); err != nil {
			verr.Add("sort", "unknown attribute %q", k.Attribute)
			continue
		}
		if seen[k.Attribute] {
			verr.Add("sort", "%s is listed more than once", k.Attribute)
		}
		seen[k.Attribute] = true
	}

	if req.Limit < 0 {
		verr.Add("limit", "must not be negative")
	}
	if req.Offset < 0 {
		verr.Add("offset", "must not be negative")
	}
	return verr.OrNil()
}

// take splits filters into those targeting attr and the rest.
func take(filters []Filter, attr Attribute) (matched, rest []Filter) {
	rest = filters[:0:0]
	for _, f := range filters {
		if f.Attribute == attr {
			matched = append(matched, f)
		} else {
			rest = append(rest, f)
		}
	}
	return matched, rest
}

// mergeBounds pairs each >= clause with the next <= clause on the same
// attribute into one between clause. Unpaired bounds and every other clause
// stay separate alternatives of the group. A paired range whose lower end is
// above its upper end is rejected.
func mergeBounds(attr Attribute, filters []Filter) ([]Filter, error) {
	if !attr.ranged() {
		return filters, nil
	}

	out := make([]Filter, 0, len(filters))
	pending := -1
	for _, f := range filters {
		switch f.Operator {
		case OpAtLeast:
			pending = len(out)
			out = append(out, f)
		case OpAtMost:
			if pending < 0 {
				out = append(out, f)
				continue
			}
			lower := out[pending].Value
			if greater(attr, lower, f.Value) {
				return nil, common.NewValidationError(string(attr), "lower bound is above upper bound")
			}
			r := Filter{Attribute: attr, Operator: OpBetween, Value: lower}
			r.Value.ToCents = f.Value.Cents
			r.Value.ToDate = f.Value.Date
			out[pending] = r
			pending = -1
		default:
			out = append(out, f)
		}
	}
	return out, nil
}

// greater reports a > b for the operand kind used by attr.
func greater(attr Attribute, a, b Value) bool {
	if attr == AttrDate {
		return a.Date.After(b.Date)
	}
	return a.Cents > b.Cents
}

func withDefaultSort(keys []SortKey) []SortKey {
	out := append([]SortKey(nil), keys...)
	for _, k := range out {
		if k.Attribute == AttrDate {
			return out
		}
	}
	return append(out, SortKey{Attribute: AttrDate})
}
