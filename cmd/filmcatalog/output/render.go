package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/field"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/filter"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/pagination"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/types"
	"github.com/SanteonNL/filmcatalog/models/catalog"
)

const barWidth = 30

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func joinOrNA(items []string) string {
	if len(items) == 0 {
		return "N/A"
	}
	return strings.Join(items, ", ")
}

// Films writes a numbered film list starting at first. Films in expanded
// are followed by their details.
func Films(w io.Writer, films []catalog.Film, first int, expanded Expanded) {
	if len(films) == 0 {
		fmt.Fprintln(w, "No films found.")
		return
	}
	for i, f := range films {
		marker := "▸"
		if expanded.Has(f.FilmID) {
			marker = "▾"
		}
		fmt.Fprintf(w, "%3d. %s %s  ⭐ %s (%d ratings)\n", first+i, marker, f.FilmTitle, Rating(f.AvgRating, 2), f.NumRatings)
		if expanded.Has(f.FilmID) {
			filmSummary(w, f)
		}
	}
}

func filmSummary(w io.Writer, f catalog.Film) {
	year := "N/A"
	if f.Metadata.Year != 0 {
		year = strconv.Itoa(f.Metadata.Year)
	}
	fmt.Fprintf(w, "       Directed by %s (%s)\n", joinOrNA(f.Metadata.Directors), year)
	fmt.Fprintf(w, "       %s\n", orNA(f.Metadata.Description))
	fmt.Fprintf(w, "       ❤️  Likes: %d   🎯 Like Ratio: %s   👀 Watches: %d\n", f.NumLikes, Percent(f.LikeRatio), f.NumWatches)
	viewers(w, f, "       ")
	if link := f.Link(); link != "" {
		fmt.Fprintf(w, "       %s\n", link)
	}
}

func viewers(w io.Writer, f catalog.Film, indent string) {
	if len(f.Reviews)+len(f.Watches) == 0 {
		return
	}
	fmt.Fprintf(w, "%sViewers\n", indent)
	for _, r := range f.Reviews {
		rating := r.Rating
		fmt.Fprintf(w, "%s  %s: %s%s\n", indent, r.User, Stars(&rating), liked(r.IsLiked))
	}
	for _, wa := range f.Watches {
		fmt.Fprintf(w, "%s  %s: N/A%s\n", indent, wa.User, liked(wa.IsLiked))
	}
}

func liked(ok bool) string {
	if ok {
		return " ❤️"
	}
	return ""
}

// FilmDetail writes the full record of one film
func FilmDetail(w io.Writer, f catalog.Film) {
	m := f.Metadata
	fmt.Fprintf(w, "%s\n", f.FilmTitle)
	fmt.Fprintf(w, "Directed by: %s\n", joinOrNA(m.Directors))
	if m.Description != "" {
		fmt.Fprintf(w, "\n%s\n\n", m.Description)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Average rating:\t%s\t%s\n", Rating(f.AvgRating, 2), Stars(f.AvgRating))
	fmt.Fprintf(tw, "Letterboxd rating:\t%s\n", Rating(m.AvgRating, 2))
	if m.Runtime > 0 {
		fmt.Fprintf(tw, "Runtime:\t%d minutes\n", m.Runtime)
	}
	if m.Year > 0 {
		fmt.Fprintf(tw, "Year:\t%d\n", m.Year)
	}
	fmt.Fprintf(tw, "Genres:\t%s\n", joinOrNA(m.Genres))
	fmt.Fprintf(tw, "Themes:\t%s\n", joinOrNA(m.Themes))
	fmt.Fprintf(tw, "Cast:\t%s\n", joinOrNA(m.Actors))
	crew := make([]string, 0, len(m.Crew))
	for _, c := range m.Crew {
		crew = append(crew, fmt.Sprintf("%s (%s)", c.Name, c.Role))
	}
	fmt.Fprintf(tw, "Crew:\t%s\n", joinOrNA(crew))
	fmt.Fprintf(tw, "Studios:\t%s\n", joinOrNA(m.Studios))
	if link := f.Link(); link != "" {
		fmt.Fprintf(tw, "Letterboxd:\t%s\n", link)
	}
	tw.Flush()
	viewers(w, f, "")
}

// Users writes one card per user with a text bar chart of their ratings
func Users(w io.Writer, users []catalog.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users found.")
		return
	}
	for i, u := range users {
		if i > 0 {
			fmt.Fprintln(w)
		}
		UserCard(w, u)
	}
}

func UserCard(w io.Writer, u catalog.User) {
	s := u.Stats
	fmt.Fprintf(w, "%s\n", u.Username)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Average Rating:\t%.3f\n", s.AvgRating)
	fmt.Fprintf(tw, "  Ratings Given:\t%d\n", s.NumRatings)
	fmt.Fprintf(tw, "  Number of Likes:\t%d\n", s.NumLikes)
	fmt.Fprintf(tw, "  Like Ratio:\t%.3f\n", s.LikeRatio)
	fmt.Fprintf(tw, "  Films Watched:\t%d\n", s.NumWatches)
	tw.Flush()

	buckets := s.Distribution()
	peak := 0
	for _, b := range buckets {
		if b.Count > peak {
			peak = b.Count
		}
	}
	for _, b := range buckets {
		n := 0
		if peak > 0 {
			n = b.Count * barWidth / peak
		}
		if n == 0 && b.Count > 0 {
			n = 1
		}
		fmt.Fprintf(w, "  %4s │%s %d\n", b.Rating, strings.Repeat("█", n), b.Count)
	}
}

// Recommendations writes suggested films with the predicted score per watcher
func Recommendations(w io.Writer, recs []catalog.Recommendation) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No recommendations found.")
		return
	}
	for i, r := range recs {
		fmt.Fprintf(w, "%2d. %s  ⭐ %s\n", i+1, r.FilmTitle, Rating(r.Metadata.AvgRating, 2))
		names := make([]string, 0, len(r.PredictedReviews))
		for name := range r.PredictedReviews {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p := r.PredictedReviews[name]
			fmt.Fprintf(w, "      %s: %.2f%s\n", name, p.Rating, liked(p.IsLiked))
		}
	}
}

// Filters lists the pending rules, marking the ones not applied yet
func Filters(w io.Writer, pending, active filter.Set) {
	if pending.Len() == 0 {
		fmt.Fprintln(w, "No filters.")
	}
	for i, r := range pending.Rules() {
		fmt.Fprintf(w, "  [%d] %s\n", i, types.Describe(r))
	}
	if !pending.Equal(active) {
		fmt.Fprintln(w, "  (unapplied changes, run apply)")
	}
}

// Fields lists a catalog grouped the way the filter editor offers them
func Fields(w io.Writer, cat *field.Catalog, vocab map[field.Vocabulary][]string) {
	for _, g := range cat.Groups() {
		fmt.Fprintf(w, "%s\n", g.Label)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, d := range g.Fields {
			hint := d.Placeholder
			if d.Kind == field.Numeric {
				hint = "gte | lte"
				if d.Unit == field.Percent {
					hint += " (percent, 0-100)"
				}
			}
			if words := vocab[d.Vocabulary]; len(words) > 0 {
				hint = "one of: " + strings.Join(words, ", ")
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", d.Field, d.Label, hint)
		}
		tw.Flush()
	}
}

// Status renders the pagination line shown under each result page
func Status(resource string, p pagination.State) string {
	switch p.Phase {
	case pagination.Idle:
		return fmt.Sprintf("No %s loaded yet.", resource)
	case pagination.Loading:
		return fmt.Sprintf("Loading %s...", resource)
	case pagination.Error:
		return p.Err
	}

	total := p.TotalPages
	if total < 1 {
		total = 1
	}
	var b strings.Builder
	if pagination.HasPrev(p) {
		b.WriteString("‹ prev  ")
	}
	fmt.Fprintf(&b, "Page %d of %d (%d %s)", p.CurrentPage, total, p.TotalItems, resource)
	if pagination.HasNext(p) {
		b.WriteString("  next ›")
	}
	return b.String()
}
