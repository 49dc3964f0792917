package output

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/SanteonNL/filmcatalog/models/catalog"
)

var placeLabels = map[int]string{
	1: "🥇 First Place",
	2: "🥈 Second Place",
	3: "🥉 Third Place",
}

// Superlatives writes every category with its awards. Categories named in
// folded are listed by title only.
func Superlatives(w io.Writer, categories []catalog.SuperlativeCategory, folded Expanded) {
	if len(categories) == 0 {
		fmt.Fprintln(w, "No superlatives found.")
		return
	}
	for i, c := range categories {
		if folded.Has(c.Category) {
			fmt.Fprintf(w, "%d. ▸ %s (%d)\n", i+1, c.Category, len(c.Superlatives))
			continue
		}
		fmt.Fprintf(w, "%d. ▾ %s\n", i+1, c.Category)
		for _, s := range c.Superlatives {
			superlative(w, s)
		}
	}
}

func superlative(w io.Writer, s catalog.Superlative) {
	fmt.Fprintf(w, "   %s\n", s.Name)
	if s.Description != "" {
		fmt.Fprintf(w, "   %s\n", s.Description)
	}
	places := s.Places()
	if len(places) == 0 {
		fmt.Fprintln(w, "     No winners for this category")
		return
	}
	for _, p := range places {
		line := strings.Join(p.Winners, ", ")
		if p.Value != nil {
			line += " " + SuperlativeValue(s.Name, *p.Value)
		}
		fmt.Fprintf(w, "     %s: %s\n", placeLabels[p.Rank], line)
	}
}

// SuperlativeValue formats a winning value for the award called name.
// Comparisons are signed and whole counts print without decimals.
func SuperlativeValue(name string, v float64) string {
	switch {
	case containsAny(name, "Comparative", "Enthusiast", "Critic"):
		return fmt.Sprintf("(%+.2f)", v)
	case name == "BFFs" || name == "Enemies",
		containsAny(name, "Positive", "Negative", "Best Movie", "Worst Movie", "Genre"):
		return fmt.Sprintf("(%.2f)", v)
	case v == math.Trunc(v):
		return fmt.Sprintf("(%d)", int64(v))
	}
	return fmt.Sprintf("(%.2f)", v)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
