// Package compiler turns the active filter set, sort and page into the flat
// parameter map sent to the catalog service.
package compiler

import (
	"math"
	"strconv"
	"strings"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/field"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/filter"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/types"
	"golang.org/x/exp/slices"
)

// Compile builds the query for one fetch.
//
// Membership and text rules on the same field are unioned into a single
// comma joined parameter (OR within a field). Numeric rules sharing a field
// and operator are narrowed to the most restrictive bound: the maximum for
// gte, the minimum for lte. Percent fields are divided by 100 once, after
// narrowing. Rules with an empty value, and numeric rules whose value does not
// parse, are treated as unset.
//
// A rule referencing a field missing from cat is a caller bug and panics with
// *field.UnknownFieldError.
func Compile(cat *field.Catalog, active filter.Set, sort types.SortSpec, page types.PageRequest) Query {
	params := compileRules(cat, active)
	params[ParamSortBy] = sort.By
	params[ParamSortOrder] = string(sort.Order)
	params[ParamPage] = strconv.Itoa(page.Page)
	params[ParamLimit] = strconv.Itoa(page.PageSize)
	return Query{params: params}
}

type boundKey struct {
	field string
	op    types.Operator
}

type bound struct {
	value float64
	raw   string
}

func compileRules(cat *field.Catalog, set filter.Set) map[string]string {
	var (
		tokenFields []string
		tokens      = make(map[string][]string)
		boundKeys   []boundKey
		bounds      = make(map[boundKey]bound)
	)

	for _, r := range set.Rules() {
		value := strings.TrimSpace(r.RawValue())
		if value == "" {
			continue
		}

		name := r.FieldName()
		kind, err := cat.KindOf(name)
		if err != nil {
			panic(err)
		}

		switch kind {
		case field.Membership, field.TextSearch:
			if _, seen := tokens[name]; !seen {
				tokenFields = append(tokenFields, name)
			}
			tokens[name] = appendTokens(tokens[name], value)

		case field.Numeric:
			v, err := strconv.ParseFloat(value, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			op := types.OperatorOf(r)
			if op != types.LTE {
				op = types.GTE
			}
			key := boundKey{field: name, op: op}
			cur, seen := bounds[key]
			if !seen {
				boundKeys = append(boundKeys, key)
				bounds[key] = bound{value: v, raw: value}
				continue
			}
			if narrower(op, v, cur.value) {
				bounds[key] = bound{value: v, raw: value}
			}
		}
	}

	params := make(map[string]string, len(tokenFields)+len(boundKeys)+4)
	for _, name := range tokenFields {
		if len(tokens[name]) > 0 {
			params[name] = strings.Join(tokens[name], ",")
		}
	}
	for _, key := range boundKeys {
		b := bounds[key]
		params[key.field+"_"+string(key.op)] = emitBound(cat, key.field, b)
	}
	return params
}

// narrower reports whether candidate is a more restrictive bound than current
func narrower(op types.Operator, candidate, current float64) bool {
	if op == types.LTE {
		return candidate < current
	}
	return candidate > current
}

func emitBound(cat *field.Catalog, name string, b bound) string {
	unit, err := cat.UnitOf(name)
	if err != nil {
		panic(err)
	}
	if unit == field.Percent {
		return fromPercent(b.value)
	}
	return b.raw
}

// fromPercent divides v by 100 by moving the decimal point of its shortest
// decimal form, so 33.3 becomes "0.333" rather than 0.33299999999999996.
func fromPercent(v float64) string {
	mant, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', -1, 64), "e")
	e, err := strconv.Atoi(exp)
	if err != nil {
		return strconv.FormatFloat(v/100, 'f', -1, 64)
	}
	shifted, err := strconv.ParseFloat(mant+"e"+strconv.Itoa(e-2), 64)
	if err != nil {
		return strconv.FormatFloat(v/100, 'f', -1, 64)
	}
	return strconv.FormatFloat(shifted, 'f', -1, 64)
}

// appendTokens splits a comma joined value and appends the tokens not seen yet
func appendTokens(dst []string, value string) []string {
	for _, tok := range strings.Split(value, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" || slices.Contains(dst, tok) {
			continue
		}
		dst = append(dst, tok)
	}
	return dst
}
