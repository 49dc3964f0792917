package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/client"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/field"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/output"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/session"
	"github.com/SanteonNL/filmcatalog/cmd/mockcatalog/server"
	"github.com/SanteonNL/filmcatalog/cmd/mockcatalog/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShell(t *testing.T, res client.Resource) (*Shell, *bytes.Buffer) {
	t.Helper()

	st, err := store.LoadFile("../../mockcatalog/fixtures/catalog.json", zerolog.Nop())
	require.NoError(t, err)
	srv := httptest.NewServer(server.New(st, zerolog.Nop()).Routes())
	t.Cleanup(srv.Close)

	cl, err := client.New(client.Options{BaseURL: srv.URL, Timeout: 5 * time.Second}, zerolog.Nop())
	require.NoError(t, err)

	cat, _ := field.ForResource(res.Name)
	sess, err := session.New(session.Options{Catalog: cat, Resource: res, PageSize: 3}, cl, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(sess.Close)

	om, err := output.NewManager(t.TempDir(), io.Discard, zerolog.Disabled)
	require.NoError(t, err)
	t.Cleanup(func() { _ = om.Close() })

	var out bytes.Buffer
	sh := New(Options{
		Session:   sess,
		Service:   cl,
		Exporter:  om,
		Out:       &out,
		Usernames: []string{"alice", "bob", "carol"},
		Genres:    []string{"Horror", "Comedy"},
	}, zerolog.Nop())
	return sh, &out
}

// run feeds lines to a fresh shell and returns everything it printed
func run(t *testing.T, lines ...string) string {
	t.Helper()
	sh, out := newTestShell(t, client.Films)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, sh.Run(ctx, Script(lines)))
	return out.String()
}

func TestFirstPage(t *testing.T) {
	t.Parallel()

	out := run(t)
	assert.Contains(t, out, "  1. ▸ Alien  ⭐ 4.17 (3 ratings)")
	assert.Contains(t, out, "  3. ▸ Hereditary  ⭐ N/A (0 ratings)")
	assert.Contains(t, out, "Page 1 of 3 (8 films)  next ›")
	assert.True(t, strings.HasSuffix(out, "Bye!\n"))
}

func TestNavigation(t *testing.T) {
	t.Parallel()

	out := run(t, "next", "n", "next", "prev", "page 9999", "page abc")
	assert.Contains(t, out, "  4. ▸ Inception")
	assert.Contains(t, out, "  7. ▸ Tenet")
	assert.Contains(t, out, "‹ prev  Page 3 of 3 (8 films)")
	assert.Contains(t, out, "Already on the last page.")
	assert.Equal(t, 2, strings.Count(out, "  1. ▸ Alien"), "first page shown initially and after invalid page input")

	out = run(t, "goto 2", "goto 2", "goto -4", "goto x")
	assert.Contains(t, out, "  6. ▸ Paddington 2")
	assert.Contains(t, out, "Already on page 2.")
	assert.Equal(t, 2, strings.Count(out, "  1. ▸ Alien"), "negative pages clamp to 1")
	assert.Contains(t, out, `error: invalid page number "x"`)
}

func TestFilterAndApply(t *testing.T) {
	t.Parallel()

	out := run(t,
		"next",
		"add avg_rating >= 4.0",
		"status",
		"apply",
		"status",
		"apply",
	)
	assert.Contains(t, out, "  [0] avg_rating ≥ 4.0\n  (unapplied changes, run apply)")
	assert.Contains(t, out, "  3. ▸ Paddington 2")
	assert.Contains(t, out, "Page 1 of 1 (3 films)")
	assert.Contains(t, out, "query: /films?avg_rating_gte=4.0&limit=3&page=1&sort_by=film_title&sort_order=asc")
	assert.Contains(t, out, "Nothing changed.")
}

func TestPercentAndMembershipFilters(t *testing.T) {
	t.Parallel()

	out := run(t, "add like_ratio gte 70", "apply", "status")
	assert.Contains(t, out, "like_ratio_gte=0.7")
	assert.Contains(t, out, "Page 1 of 1 (2 films)")

	out = run(t, "add watched_by alice,bob", "add watched_by alice", "apply", "status")
	assert.Contains(t, out, "&watched_by=alice,bob\n")
	assert.Contains(t, out, "  3. ▸ Inception")
	assert.Contains(t, out, "Page 1 of 2 (6 films)")
}

func TestEditFilters(t *testing.T) {
	t.Parallel()

	out := run(t,
		"add genres Horror",
		"set 0 --field directors nolan",
		"set 0 --op lte",
		"rm 4",
		"add box_office 1",
		"filters",
		"revert",
		"filters",
	)
	assert.Contains(t, out, "  [0] directors = nolan")
	assert.Contains(t, out, "error: rule index 4 out of range")
	assert.Contains(t, out, `error: unknown field "box_office"`)
	assert.Contains(t, out, "No filters.")
}

func TestSort(t *testing.T) {
	t.Parallel()

	out := run(t, "sort avg_rating desc", "filters", "apply", "sort directors")
	assert.Contains(t, out, "sort: avg_rating desc (applied: film_title asc)")
	assert.Contains(t, out, "  1. ▸ Paddington 2")
	assert.Contains(t, out, `error: cannot sort films by "directors"`)
}

func TestOpenAndShow(t *testing.T) {
	t.Parallel()

	out := run(t, "open 1", "show 2", "show nope", "open 9")
	assert.Contains(t, out, "  1. ▾ Alien")
	assert.Contains(t, out, "Directed by Ridley Scott (1979)")
	assert.Contains(t, out, "Directed by: Michael Mann")
	assert.Contains(t, out, "Runtime:")
	assert.Contains(t, out, "error: film not found")
	assert.Contains(t, out, "error: film 9 is not on this page")
}

func TestRecommend(t *testing.T) {
	t.Parallel()

	out := run(t, "recommend alice bob", "recommend --ok bob -n 1 alice bob", "recommend")
	assert.Contains(t, out, " 1. Mad Max: Fury Road  ⭐ 4.20")
	assert.Contains(t, out, " 2. Hereditary")
	assert.Contains(t, out, " 1. Paddington 2  ⭐ 3.90\n      alice: 4.50 ❤️")
	assert.Contains(t, out, "error: please select at least one user")
}

func TestSuperlatives(t *testing.T) {
	t.Parallel()

	out := run(t, "superlatives", "superlatives 2", "superlatives 9")
	assert.Contains(t, out, "1. ▾ User Superlatives")
	assert.Contains(t, out, "     🥇 First Place: bob (+0.31)")
	assert.Contains(t, out, "     🥈 Second Place: carol (-0.05)")
	assert.Contains(t, out, "     🥈 Second Place: alice, carol (4)")
	assert.Contains(t, out, "     🥉 Third Place: Heat (4.00)")
	assert.Contains(t, out, "     No winners for this category")
	assert.Contains(t, out, "2. ▸ Film Superlatives (2)")
	assert.Contains(t, out, `error: no superlative category "9"`)
}

func TestExport(t *testing.T) {
	t.Parallel()

	out := run(t, "export")
	i := strings.Index(out, "Saved ")
	require.NotEqual(t, -1, i)
	path := strings.TrimSpace(strings.SplitN(out[i+len("Saved "):], "\n", 2)[0])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, float64(8), doc["total_films"])
	assert.Len(t, doc["films"], 3)
}

func TestUsersResource(t *testing.T) {
	t.Parallel()

	sh, out := newTestShell(t, client.Users)
	require.NoError(t, sh.Run(context.Background(), Script([]string{"open 1", "add avg_rating >= 3.5", "apply"})))
	assert.Contains(t, out.String(), "alice\n  Average Rating:")
	assert.Contains(t, out.String(), "error: only films can be opened")
	assert.Contains(t, out.String(), "Page 1 of 1 (2 users)")
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()

	out := run(t, "frobnicate", "help", "exit", "next")
	assert.Contains(t, out, `error: unknown command "frobnicate"`)
	assert.Contains(t, out, "recommend [--num n]")
	assert.NotContains(t, out, "  4. ▸ Inception", "nothing runs after exit")
}

func TestComplete(t *testing.T) {
	t.Parallel()

	sh, _ := newTestShell(t, client.Films)
	tests := []struct {
		line string
		want []string
	}{
		{"re", []string{"revert", "refresh", "recommend"}},
		{"add gen", []string{"add genres"}},
		{"add avg_rating ", []string{"add avg_rating gte", "add avg_rating lte"}},
		{"add watched_by a", []string{"add watched_by alice"}},
		{"add genres h", []string{"add genres Horror"}},
		{"sort avg_rating d", []string{"sort avg_rating desc"}},
		{"recommend alice ", []string{"recommend alice alice", "recommend alice bob", "recommend alice carol"}},
		{"next ", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sh.Complete(tt.line), tt.line)
	}
}

func TestSplitArgs(t *testing.T) {
	t.Parallel()

	args, err := splitArgs(`add description "time travel"  'a b'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"add", "description", "time travel", "a b"}, args)

	_, err = splitArgs(`add "oops`)
	assert.EqualError(t, err, "unterminated quote")
}
