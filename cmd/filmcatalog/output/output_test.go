package output

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/field"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/filter"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/pagination"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/types"
	"github.com/SanteonNL/filmcatalog/models/catalog"
	"github.com/SanteonNL/filmcatalog/util"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStars(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rating *float64
		want   string
	}{
		{nil, "N/A"},
		{util.Float64Ptr(0), "☆☆☆☆☆"},
		{util.Float64Ptr(0.5), "⯪☆☆☆☆"},
		{util.Float64Ptr(3), "★★★☆☆"},
		{util.Float64Ptr(4.5), "★★★★⯪"},
		{util.Float64Ptr(5), "★★★★★"},
		{util.Float64Ptr(7), "★★★★★"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Stars(tt.rating))
	}
}

func TestPercentAndRating(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "73.5%", Percent(util.Float64Ptr(0.735)))
	assert.Equal(t, "N/A", Percent(nil))
	assert.Equal(t, "3.86", Rating(util.Float64Ptr(3.857), 2))
}

func TestExpandedToggle(t *testing.T) {
	t.Parallel()

	var e Expanded
	a := e.Toggle("f1")
	b := a.Toggle("f2")
	c := b.Toggle("f1")

	assert.False(t, e.Has("f1"))
	assert.True(t, a.Has("f1"))
	assert.Equal(t, []string{"f1", "f2"}, b.IDs())
	assert.Equal(t, []string{"f2"}, c.IDs())
	assert.Equal(t, 2, b.Len(), "toggling returns a new set")
}

func TestFilms(t *testing.T) {
	t.Parallel()

	films := []catalog.Film{
		{FilmID: "f1", FilmTitle: "Alien", AvgRating: util.Float64Ptr(4.25), NumRatings: 3},
		{
			FilmID: "f2", FilmTitle: "Heat", NumLikes: 2, LikeRatio: util.Float64Ptr(0.5),
			FilmLink: "letterboxd.com/film/heat",
			Metadata: catalog.FilmMetadata{Directors: []string{"Michael Mann"}, Year: 1995},
			Reviews:  []catalog.Review{{User: "alice", Rating: 4.5, IsLiked: true}},
			Watches:  []catalog.Watch{{User: "bob"}},
		},
	}

	var buf bytes.Buffer
	Films(&buf, films, 21, Expanded{}.Toggle("f2"))
	out := buf.String()

	assert.Contains(t, out, " 21. ▸ Alien  ⭐ 4.25 (3 ratings)")
	assert.Contains(t, out, " 22. ▾ Heat  ⭐ N/A (0 ratings)")
	assert.Contains(t, out, "Directed by Michael Mann (1995)")
	assert.Contains(t, out, "Like Ratio: 50.0%")
	assert.Contains(t, out, "alice: ★★★★⯪ ❤️")
	assert.Contains(t, out, "bob: N/A")
	assert.Contains(t, out, "https://letterboxd.com/film/heat")
	assert.NotContains(t, out, "Directed by N/A", "collapsed films hide details")

	buf.Reset()
	Films(&buf, nil, 1, Expanded{})
	assert.Equal(t, "No films found.\n", buf.String())
}

func TestUserCard(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	UserCard(&buf, catalog.User{
		Username: "alice",
		Stats: catalog.UserStats{
			AvgRating:          3.5,
			NumRatings:         12,
			LikeRatio:          0.25,
			RatingDistribution: map[string]int{"4.0": 6, "0.5": 1, "10": 0, "3.5": 3},
		},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	assert.Equal(t, "alice", lines[0])
	assert.Regexp(t, `Average Rating:\s+3\.500`, buf.String())
	var bars []string
	for _, l := range lines {
		if strings.Contains(l, "│") {
			bars = append(bars, strings.TrimSpace(l))
		}
	}
	require.Len(t, bars, 4)
	assert.Equal(t, "0.5 │█████ 1", bars[0])
	assert.Equal(t, "3.5 │"+strings.Repeat("█", 15)+" 3", bars[1])
	assert.Equal(t, "4.0 │"+strings.Repeat("█", barWidth)+" 6", bars[2])
	assert.Equal(t, "10 │ 0", bars[3])
}

func TestSuperlativeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{"Biggest Enthusiast", 0.31, "(+0.31)"},
		{"Harshest Critic", -0.4, "(-0.40)"},
		{"Most Comparative", 0, "(+0.00)"},
		{"BFFs", 1, "(1.00)"},
		{"Most Positive", 4, "(4.00)"},
		{"Best Movie", 4.5, "(4.50)"},
		{"Favourite Genre", 3.857, "(3.86)"},
		{"Most Films Watched", 12, "(12)"},
		{"Longest Streak", 2.5, "(2.50)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SuperlativeValue(tt.name, tt.value), tt.name)
	}
}

func TestSuperlatives(t *testing.T) {
	t.Parallel()

	categories := []catalog.SuperlativeCategory{
		{Category: "User Superlatives", Superlatives: []catalog.Superlative{
			{
				Name:        "Most Films Watched",
				Description: "Logged the most films",
				First:       []string{"bob"},
				FirstValue:  util.Float64Ptr(5),
				Second:      []string{"alice", "carol"},
				SecondValue: util.Float64Ptr(4),
			},
			{Name: "Most Divisive"},
		}},
		{Category: "Film Superlatives", Superlatives: []catalog.Superlative{{Name: "Best Movie"}}},
	}

	var b bytes.Buffer
	Superlatives(&b, categories, Expanded{}.Toggle("Film Superlatives"))
	want := strings.Join([]string{
		"1. ▾ User Superlatives",
		"   Most Films Watched",
		"   Logged the most films",
		"     🥇 First Place: bob (5)",
		"     🥈 Second Place: alice, carol (4)",
		"   Most Divisive",
		"     No winners for this category",
		"2. ▸ Film Superlatives (1)",
		"",
	}, "\n")
	assert.Equal(t, want, b.String())

	b.Reset()
	Superlatives(&b, nil, Expanded{})
	assert.Equal(t, "No superlatives found.\n", b.String())
}

func TestFiltersListing(t *testing.T) {
	t.Parallel()

	active := filter.NewSet(types.NumericRule{Field: "avg_rating", Op: types.GTE, Value: "4.0"})
	pending := active.Add(field.Films(), "genres")

	var buf bytes.Buffer
	Filters(&buf, pending, active)
	assert.Equal(t, "  [0] avg_rating ≥ 4.0\n  [1] genres = (not set)\n  (unapplied changes, run apply)\n", buf.String())
}

func TestFieldsListing(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Fields(&buf, field.Films(), map[field.Vocabulary][]string{field.Usernames: {"alice", "bob"}})
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, field.GroupNumeric+"\n"))
	assert.Contains(t, out, "(percent, 0-100)")
	assert.Contains(t, out, "one of: alice, bob")
	assert.Contains(t, out, "e.g., Horror, Comedy, Science Fiction")
}

func TestStatus(t *testing.T) {
	t.Parallel()

	p := pagination.New()
	assert.Equal(t, "No films loaded yet.", Status("films", p))
	assert.Equal(t, "Loading films...", Status("films", pagination.BeginLoading(p)))
	assert.Equal(t, "failed to fetch films: boom", Status("films", pagination.Fail(p, "failed to fetch films: boom")))

	p = pagination.GoToPage(pagination.ApplyResponse(p, 3, 55), 2)
	assert.Equal(t, "‹ prev  Page 2 of 3 (55 films)  next ›", Status("films", p))
	p = pagination.ApplyResponse(pagination.New(), 0, 0)
	assert.Equal(t, "Page 1 of 1 (0 films)", Status("films", p))
}

func TestManagerWriteJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	om, err := NewManager(dir, io.Discard, zerolog.DebugLevel)
	require.NoError(t, err)
	t.Cleanup(func() { _ = om.Close() })

	path, err := om.WriteJSON(map[string]int{"page": 2}, "films")
	require.NoError(t, err)
	assert.Equal(t, om.BaseDir(), filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]int
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 2, got["page"])

	// Overwrites in place.
	_, err = om.WriteJSON(map[string]int{"page": 3}, "films")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"page": 3`)

	logger := om.Logger()
	logger.Info().Msg("hello")
	logData, err := os.ReadFile(om.Path(filepath.Join("logs", "filmcatalog.log")))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "hello")
}
