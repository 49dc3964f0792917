package catalog

import (
	"sort"
	"strconv"
)

// User is a tracked Letterboxd account with aggregate statistics
type User struct {
	Username string    `json:"username"`
	Stats    UserStats `json:"stats"`
}

type UserStats struct {
	AvgRating          float64        `json:"avg_rating"`
	NumRatings         int            `json:"num_ratings"`
	NumLikes           int            `json:"num_likes"`
	LikeRatio          float64        `json:"like_ratio"`
	NumWatches         int            `json:"num_watches"`
	RatingDistribution map[string]int `json:"rating_distribution,omitempty"`
}

// RatingBucket is one bar of a user's rating distribution
type RatingBucket struct {
	Rating string
	Count  int
}

// Distribution returns the rating distribution ordered by numeric rating
func (s UserStats) Distribution() []RatingBucket {
	buckets := make([]RatingBucket, 0, len(s.RatingDistribution))
	for rating, count := range s.RatingDistribution {
		buckets = append(buckets, RatingBucket{Rating: rating, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		a, errA := strconv.ParseFloat(buckets[i].Rating, 64)
		b, errB := strconv.ParseFloat(buckets[j].Rating, 64)
		if errA != nil || errB != nil {
			return buckets[i].Rating < buckets[j].Rating
		}
		return a < b
	})
	return buckets
}
