package query

import (
	"strings"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/field"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/types"
	"golang.org/x/exp/slices"
)

// Accessors exposes the fields of a record type to Apply
type Accessors[T any] struct {
	// Numeric returns the value of a numeric field, false when it is unset
	Numeric map[string]func(T) (float64, bool)
	// Lists returns the values a membership or text field is matched against.
	// A "not_" prefixed membership field uses the list of its positive form.
	Lists map[string]func(T) []string
	// Key returns the text sort key of non-numeric sort fields
	Key map[string]func(T) string
}

// Result is one page of matching records
type Result[T any] struct {
	Items      []T
	TotalItems int
	TotalPages int
}

// Apply filters, sorts and pages items. A page past the end is empty and
// still reports the totals.
func Apply[T any](items []T, acc Accessors[T], c Criteria) Result[T] {
	matched := Filter(items, acc, c)
	Sort(matched, acc, c.Sort)

	total := len(matched)
	pages := (total + c.Limit - 1) / c.Limit
	start := (c.Page - 1) * c.Limit
	if start > total {
		start = total
	}
	end := min(start+c.Limit, total)

	page := make([]T, end-start)
	copy(page, matched[start:end])
	return Result[T]{Items: page, TotalItems: total, TotalPages: pages}
}

// Filter returns the items satisfying every criterion, in input order
func Filter[T any](items []T, acc Accessors[T], c Criteria) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if matches(it, acc, c) {
			out = append(out, it)
		}
	}
	return out
}

func matches[T any](it T, acc Accessors[T], c Criteria) bool {
	for _, b := range c.Bounds {
		get, ok := acc.Numeric[b.Field]
		if !ok {
			return false
		}
		v, set := get(it)
		if !set {
			return false
		}
		if b.Op == types.GTE && v < b.Value || b.Op == types.LTE && v > b.Value {
			return false
		}
	}

	for _, m := range c.Matches {
		name, negated := m.Field, false
		if m.Kind == field.Membership {
			if positive, ok := strings.CutPrefix(m.Field, "not_"); ok {
				name, negated = positive, true
			}
		}
		get, ok := acc.Lists[name]
		if !ok {
			return false
		}
		values := get(it)

		switch {
		case m.Kind == field.TextSearch:
			if !slices.ContainsFunc(m.Tokens, func(tok string) bool { return containsText(values, tok) }) {
				return false
			}
		case negated:
			if slices.ContainsFunc(m.Tokens, func(tok string) bool { return containsFold(values, tok) }) {
				return false
			}
		default:
			if !slices.ContainsFunc(m.Tokens, func(tok string) bool { return containsFold(values, tok) }) {
				return false
			}
		}
	}
	return true
}

func containsFold(values []string, tok string) bool {
	return slices.ContainsFunc(values, func(v string) bool { return strings.EqualFold(v, tok) })
}

func containsText(values []string, tok string) bool {
	tok = strings.ToLower(tok)
	return slices.ContainsFunc(values, func(v string) bool { return strings.Contains(strings.ToLower(v), tok) })
}

// Sort orders items in place by the given sort. Unset numeric values sort last in
// either direction; ties keep their input order.
func Sort[T any](items []T, acc Accessors[T], by types.SortSpec) {
	desc := by.Order == types.Descending
	if get, ok := acc.Numeric[by.By]; ok {
		slices.SortStableFunc(items, func(a, b T) int {
			va, okA := get(a)
			vb, okB := get(b)
			switch {
			case !okA && !okB:
				return 0
			case !okA:
				return 1
			case !okB:
				return -1
			}
			return direction(compare(va, vb), desc)
		})
		return
	}
	if key, ok := acc.Key[by.By]; ok {
		slices.SortStableFunc(items, func(a, b T) int {
			return direction(strings.Compare(strings.ToLower(key(a)), strings.ToLower(key(b))), desc)
		})
	}
}

func compare(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func direction(c int, desc bool) int {
	if desc {
		return -c
	}
	return c
}
