package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/compiler"
	"github.com/SanteonNL/filmcatalog/models/catalog"
	"github.com/SanteonNL/filmcatalog/util"
	"golang.org/x/exp/slices"
)

// RecommendParams are the parameters of /recommendations that are not filters
var RecommendParams = []string{"watchers", "num_recs", "ok_to_have_watched", "max_ok_to_have_watched"}

const neutralRating = 2.5

type Recommend struct {
	Watchers []string
	NumRecs  int
	// OkToHaveWatched is a watcher, or "all", allowed to have seen a film
	OkToHaveWatched    string
	MaxOkToHaveWatched int
}

func ParseRecommend(v url.Values) (Recommend, error) {
	r := Recommend{
		Watchers:        util.SplitList(v.Get("watchers")),
		NumRecs:         compiler.DefaultRecommendations,
		OkToHaveWatched: strings.TrimSpace(v.Get("ok_to_have_watched")),
	}
	if len(r.Watchers) == 0 {
		return Recommend{}, &BadRequestError{Param: "watchers", Reason: "at least one watcher is required"}
	}
	if raw := v.Get("num_recs"); raw != "" {
		n, err := positive("num_recs", raw)
		if err != nil {
			return Recommend{}, err
		}
		r.NumRecs = min(n, compiler.MaxRecommendations)
	}
	if raw := v.Get("max_ok_to_have_watched"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Recommend{}, &BadRequestError{Param: "max_ok_to_have_watched", Reason: "must be a non-negative integer"}
		}
		r.MaxOkToHaveWatched = n
	}
	return r, nil
}

// allows reports whether a film seen by the given watchers may be suggested
func (r Recommend) allows(seen []string) bool {
	switch {
	case len(seen) == 0:
		return true
	case r.OkToHaveWatched == "all":
		return r.MaxOkToHaveWatched == 0 || len(seen) <= r.MaxOkToHaveWatched
	case r.OkToHaveWatched != "":
		return len(seen) == 1 && seen[0] == r.OkToHaveWatched
	}
	return false
}

// Recommendations ranks films for a group of watchers. The predicted
// rating for a watcher is the film's average, falling back to the
// Letterboxd average.
func Recommendations(films []catalog.Film, r Recommend) []catalog.Recommendation {
	recs := make([]catalog.Recommendation, 0, len(films))
	for _, f := range films {
		watched := f.WatchedBy()
		var seen []string
		for _, w := range r.Watchers {
			if slices.Contains(watched, w) {
				seen = append(seen, w)
			}
		}
		if !r.allows(seen) {
			continue
		}

		score := predicted(f)
		liked := f.LikeRatio != nil && *f.LikeRatio >= 0.5
		preds := make(map[string]catalog.PredictedReview, len(r.Watchers))
		for _, w := range r.Watchers {
			if !slices.Contains(seen, w) {
				preds[w] = catalog.PredictedReview{Rating: score, IsLiked: liked}
			}
		}
		recs = append(recs, catalog.Recommendation{Film: f, PredictedReviews: preds})
	}

	slices.SortStableFunc(recs, func(a, b catalog.Recommendation) int {
		if c := compare(predicted(b.Film), predicted(a.Film)); c != 0 {
			return c
		}
		return strings.Compare(a.FilmTitle, b.FilmTitle)
	})
	if len(recs) > r.NumRecs {
		recs = recs[:r.NumRecs]
	}
	return recs
}

func predicted(f catalog.Film) float64 {
	v := neutralRating
	switch {
	case f.AvgRating != nil:
		v = *f.AvgRating
	case f.Metadata.AvgRating != nil:
		v = *f.Metadata.AvgRating
	}
	return math.Round(v*100) / 100
}
