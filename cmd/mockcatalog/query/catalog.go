package query

import (
	"github.com/SanteonNL/filmcatalog/models/catalog"
)

func optional(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

func count(n int) (float64, bool) {
	return float64(n), true
}

func positiveInt(n int) (float64, bool) {
	return float64(n), n > 0
}

// Films exposes the filterable and sortable attributes of a film
var Films = Accessors[catalog.Film]{
	Numeric: map[string]func(catalog.Film) (float64, bool){
		"avg_rating":          func(f catalog.Film) (float64, bool) { return optional(f.AvgRating) },
		"num_ratings":         func(f catalog.Film) (float64, bool) { return count(f.NumRatings) },
		"num_watches":         func(f catalog.Film) (float64, bool) { return count(f.NumWatches) },
		"num_likes":           func(f catalog.Film) (float64, bool) { return count(f.NumLikes) },
		"like_ratio":          func(f catalog.Film) (float64, bool) { return optional(f.LikeRatio) },
		"metadata.avg_rating": func(f catalog.Film) (float64, bool) { return optional(f.Metadata.AvgRating) },
		"metadata.year":       func(f catalog.Film) (float64, bool) { return positiveInt(f.Metadata.Year) },
		"metadata.runtime":    func(f catalog.Film) (float64, bool) { return positiveInt(f.Metadata.Runtime) },
	},
	Lists: map[string]func(catalog.Film) []string{
		"watched_by":  catalog.Film.WatchedBy,
		"rated_by":    catalog.Film.RatedBy,
		"genres":      func(f catalog.Film) []string { return f.Metadata.Genres },
		"directors":   func(f catalog.Film) []string { return f.Metadata.Directors },
		"actors":      func(f catalog.Film) []string { return f.Metadata.Actors },
		"studios":     func(f catalog.Film) []string { return f.Metadata.Studios },
		"themes":      func(f catalog.Film) []string { return f.Metadata.Themes },
		"description": func(f catalog.Film) []string { return []string{f.Metadata.Description} },
		"crew": func(f catalog.Film) []string {
			out := make([]string, 0, 2*len(f.Metadata.Crew))
			for _, c := range f.Metadata.Crew {
				out = append(out, c.Name, c.Role)
			}
			return out
		},
	},
	Key: map[string]func(catalog.Film) string{
		"film_title": func(f catalog.Film) string { return f.FilmTitle },
	},
}

// Users exposes the filterable and sortable statistics of a user
var Users = Accessors[catalog.User]{
	Numeric: map[string]func(catalog.User) (float64, bool){
		"avg_rating":  func(u catalog.User) (float64, bool) { return u.Stats.AvgRating, true },
		"num_ratings": func(u catalog.User) (float64, bool) { return count(u.Stats.NumRatings) },
		"num_watches": func(u catalog.User) (float64, bool) { return count(u.Stats.NumWatches) },
		"num_likes":   func(u catalog.User) (float64, bool) { return count(u.Stats.NumLikes) },
		"like_ratio":  func(u catalog.User) (float64, bool) { return u.Stats.LikeRatio, true },
	},
	Key: map[string]func(catalog.User) string{
		"username": func(u catalog.User) string { return u.Username },
	},
}
