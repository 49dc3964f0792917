package compiler

import (
	"net/url"
	"sort"
	"strings"
)

const (
	ParamSortBy    = "sort_by"
	ParamSortOrder = "sort_order"
	ParamPage      = "page"
	ParamLimit     = "limit"
)

// Query is a compiled, immutable mapping of query parameter name to value
type Query struct {
	params map[string]string
}

// NewQuery copies params into a Query
func NewQuery(params map[string]string) Query {
	q := Query{params: make(map[string]string, len(params))}
	for k, v := range params {
		q.params[k] = v
	}
	return q
}

func (q Query) Get(name string) (string, bool) {
	v, ok := q.params[name]
	return v, ok
}

func (q Query) Len() int {
	return len(q.params)
}

// Params returns a copy of the parameter map
func (q Query) Params() map[string]string {
	out := make(map[string]string, len(q.params))
	for k, v := range q.params {
		out[k] = v
	}
	return out
}

// Values returns the parameters as url.Values
func (q Query) Values() url.Values {
	v := make(url.Values, len(q.params))
	for k, val := range q.params {
		v.Set(k, val)
	}
	return v
}

// Encode renders the query with keys sorted. Commas separating tokens are kept
// literal so the output reads as field=a,b.
func (q Query) Encode() string {
	keys := make([]string, 0, len(q.params))
	for k := range q.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(strings.ReplaceAll(url.QueryEscape(q.params[k]), "%2C", ","))
	}
	return b.String()
}

func (q Query) String() string {
	return q.Encode()
}

// Without returns a copy of q lacking the named parameters
func (q Query) Without(names ...string) Query {
	out := NewQuery(q.params)
	for _, n := range names {
		delete(out.params, n)
	}
	return out
}
