package compiler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/field"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/filter"
	"golang.org/x/exp/slices"
)

const (
	MaxRecommendations     = 20
	DefaultRecommendations = 5
)

var ErrNoWatchers = errors.New("please select at least one user")

// Recommendation asks the service for films a group of watchers has not seen
type Recommendation struct {
	Watchers []string
	NumRecs  int
	// OkToHaveWatched names one watcher, or "all", allowed to have seen a suggestion already
	OkToHaveWatched    string
	MaxOkToHaveWatched int
}

// CompileRecommendations builds the recommendations query from the active
// filters. Filters compile exactly as in Compile; sort and page parameters are
// not sent.
func CompileRecommendations(cat *field.Catalog, active filter.Set, req Recommendation) (Query, error) {
	var watchers []string
	for _, w := range req.Watchers {
		if w = strings.TrimSpace(w); w != "" && !slices.Contains(watchers, w) {
			watchers = append(watchers, w)
		}
	}
	if len(watchers) == 0 {
		return Query{}, ErrNoWatchers
	}

	n := req.NumRecs
	if n <= 0 {
		n = DefaultRecommendations
	}
	if n > MaxRecommendations {
		n = MaxRecommendations
	}

	params := compileRules(cat, active)
	params["watchers"] = strings.Join(watchers, ",")
	params["num_recs"] = strconv.Itoa(n)
	if ok := strings.TrimSpace(req.OkToHaveWatched); ok != "" {
		params["ok_to_have_watched"] = ok
	}
	if req.MaxOkToHaveWatched > 0 {
		params["max_ok_to_have_watched"] = strconv.Itoa(req.MaxOkToHaveWatched)
	}
	return Query{params: params}, nil
}
