package output

import (
	"strconv"
	"strings"
)

const (
	fullStar  = "★"
	halfStar  = "⯪"
	emptyStar = "☆"
)

// Stars renders a 0-5 rating as five glyphs: full stars, a half star for any
// remainder, then empty stars. A nil rating renders as N/A.
func Stars(rating *float64) string {
	if rating == nil {
		return "N/A"
	}
	r := *rating
	if r > 5 {
		r = 5
	}

	var b strings.Builder
	n := 0
	for ; r >= 1; r-- {
		b.WriteString(fullStar)
		n++
	}
	if r > 0 {
		b.WriteString(halfStar)
		n++
	}
	b.WriteString(strings.Repeat(emptyStar, 5-n))
	return b.String()
}

// Rating formats an optional average with the given precision
func Rating(v *float64, prec int) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

// Percent formats a 0-1 ratio as a percentage with one decimal
func Percent(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v*100, 'f', 1, 64) + "%"
}
