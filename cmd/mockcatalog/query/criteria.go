// Package query interprets catalog query strings on the server side and
// evaluates them against in-memory records.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/field"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/types"
	"github.com/SanteonNL/filmcatalog/util"
	"golang.org/x/exp/slices"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var (
	FilmSort = types.SortSpec{By: "film_title", Order: types.Ascending}
	UserSort = types.SortSpec{By: "username", Order: types.Ascending}
)

// Bound is a numeric comparison taken from <field>_gte or <field>_lte
type Bound struct {
	Field string
	Op    types.Operator
	Value float64
}

// Match is a list valued criterion. It holds when any token matches; negated
// membership criteria hold when none does.
type Match struct {
	Field  string
	Kind   field.Kind
	Tokens []string
}

type Criteria struct {
	Bounds  []Bound
	Matches []Match
	Sort    types.SortSpec
	Page    int
	Limit   int
}

// BadRequestError reports a query the server cannot interpret
type BadRequestError struct {
	Param  string
	Reason string
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Reason)
}

// Parse reads criteria for cat from v. Parameters named in extra are left
// for the caller; any other unknown parameter is rejected.
func Parse(cat *field.Catalog, v url.Values, defaultSort types.SortSpec, extra ...string) (Criteria, error) {
	c := Criteria{Sort: defaultSort, Page: 1, Limit: DefaultLimit}

	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		raw := v.Get(key)
		switch {
		case slices.Contains(extra, key):
			continue
		case key == "page":
			n, err := positive(key, raw)
			if err != nil {
				return Criteria{}, err
			}
			c.Page = n
		case key == "limit":
			n, err := positive(key, raw)
			if err != nil {
				return Criteria{}, err
			}
			c.Limit = min(n, MaxLimit)
		case key == "sort_by":
			if !cat.Sortable(raw) {
				return Criteria{}, &BadRequestError{Param: key, Reason: fmt.Sprintf("cannot sort %s by %q", cat.Resource(), raw)}
			}
			c.Sort.By = raw
		case key == "sort_order":
			order, err := types.ParseSortOrder(raw)
			if err != nil {
				return Criteria{}, &BadRequestError{Param: key, Reason: err.Error()}
			}
			c.Sort.Order = order
		default:
			if err := c.addFilter(cat, key, raw); err != nil {
				return Criteria{}, err
			}
		}
	}
	return c, nil
}

func (c *Criteria) addFilter(cat *field.Catalog, key, raw string) error {
	for _, op := range []types.Operator{types.GTE, types.LTE} {
		name, ok := strings.CutSuffix(key, "_"+string(op))
		if !ok {
			continue
		}
		if d, known := cat.Lookup(name); known && d.Kind == field.Numeric {
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return &BadRequestError{Param: key, Reason: "not a number"}
			}
			c.Bounds = append(c.Bounds, Bound{Field: name, Op: op, Value: value})
			return nil
		}
	}

	d, ok := cat.Lookup(key)
	if !ok || d.Kind == field.Numeric {
		return &BadRequestError{Param: key, Reason: "unknown filter"}
	}
	tokens := util.SplitList(raw)
	if len(tokens) == 0 {
		return nil
	}
	c.Matches = append(c.Matches, Match{Field: key, Kind: d.Kind, Tokens: tokens})
	return nil
}

func positive(key, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &BadRequestError{Param: key, Reason: "must be a positive integer"}
	}
	return n, nil
}
