package catalog

import "strings"

// Film is a single catalog entry as returned by the films resource
type Film struct {
	FilmID       string       `json:"film_id"`
	FilmTitle    string       `json:"film_title"`
	FilmLink     string       `json:"film_link"`
	AvgRating    *float64     `json:"avg_rating,omitempty"`
	NumRatings   int          `json:"num_ratings"`
	NumWatches   int          `json:"num_watches"`
	NumLikes     int          `json:"num_likes"`
	LikeRatio    *float64     `json:"like_ratio,omitempty"`
	StddevRating *float64     `json:"stddev_rating,omitempty"`
	Metadata     FilmMetadata `json:"metadata"`
	Reviews      []Review     `json:"reviews,omitempty"`
	Watches      []Watch      `json:"watches,omitempty"`
}

// FilmMetadata holds the scraped Letterboxd metadata of a film
type FilmMetadata struct {
	Directors   []string     `json:"directors"`
	Year        int          `json:"year,omitempty"`
	Description string       `json:"description,omitempty"`
	Runtime     int          `json:"runtime,omitempty"`
	Genres      []string     `json:"genres"`
	Themes      []string     `json:"themes"`
	Actors      []string     `json:"actors"`
	Crew        []CrewMember `json:"crew"`
	Studios     []string     `json:"studios"`
	BackdropURL string       `json:"backdrop_url,omitempty"`
	AvgRating   *float64     `json:"avg_rating,omitempty"`
}

type CrewMember struct {
	Role string `json:"role"`
	Name string `json:"name"`
}

// Review is a rating left by a tracked user
type Review struct {
	User    string  `json:"user"`
	Rating  float64 `json:"rating"`
	IsLiked bool    `json:"is_liked"`
}

// Watch is a log entry without a rating
type Watch struct {
	User    string `json:"user"`
	IsLiked bool   `json:"is_liked"`
}

// PredictedReview is the recommender's guess for a user that has not rated the film
type PredictedReview struct {
	Rating  float64 `json:"rating"`
	IsLiked bool    `json:"is_liked"`
}

// Recommendation is a film suggested for a group of watchers
type Recommendation struct {
	Film
	PredictedReviews map[string]PredictedReview `json:"predicted_reviews,omitempty"`
}

// Link returns an absolute URL for the film page
func (f Film) Link() string {
	if f.FilmLink == "" || strings.HasPrefix(f.FilmLink, "http") {
		return f.FilmLink
	}
	return "https://" + f.FilmLink
}

// RatedBy returns the users that left a rating
func (f Film) RatedBy() []string {
	users := make([]string, 0, len(f.Reviews))
	for _, r := range f.Reviews {
		users = append(users, r.User)
	}
	return users
}

// WatchedBy returns every user that rated or logged the film
func (f Film) WatchedBy() []string {
	users := f.RatedBy()
	for _, w := range f.Watches {
		users = append(users, w.User)
	}
	return users
}
