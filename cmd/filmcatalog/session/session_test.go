package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/client"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/compiler"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/field"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/filter"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/pagination"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/types"
	"github.com/SanteonNL/filmcatalog/util"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	page client.Page
	err  error
}

type call struct {
	query compiler.Query
	reply chan result
}

func (c call) param(name string) string {
	v, _ := c.query.Get(name)
	return v
}

// scriptedFetcher hands every fetch to the test, which answers it explicitly
type scriptedFetcher struct {
	calls     chan call
	ignoreCtx bool
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{calls: make(chan call, 16)}
}

func (f *scriptedFetcher) Fetch(ctx context.Context, _ client.Resource, q compiler.Query) (client.Page, error) {
	c := call{query: q, reply: make(chan result, 1)}
	f.calls <- c
	if f.ignoreCtx {
		r := <-c.reply
		return r.page, r.err
	}
	select {
	case r := <-c.reply:
		return r.page, r.err
	case <-ctx.Done():
		return client.Page{}, &client.TransportError{Err: ctx.Err()}
	}
}

func (f *scriptedFetcher) next(t *testing.T) call {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("expected a fetch")
		return call{}
	}
}

func (f *scriptedFetcher) none(t *testing.T) {
	t.Helper()
	select {
	case c := <-f.calls:
		t.Fatalf("unexpected fetch %s", c.query.Encode())
	case <-time.After(20 * time.Millisecond):
	}
}

func filmsPage(totalPages int, titles ...string) client.Page {
	p := client.Page{TotalPages: totalPages, TotalItems: totalPages * DefaultPageSize}
	for _, title := range titles {
		p.Items = append(p.Items, json.RawMessage(fmt.Sprintf(`{"film_title":%q}`, title)))
	}
	return p
}

func titles(t *testing.T, p client.Page) []string {
	t.Helper()
	films, err := p.Films()
	require.NoError(t, err)
	out := make([]string, 0, len(films))
	for _, f := range films {
		out = append(out, f.FilmTitle)
	}
	return out
}

func waitSession(t *testing.T, s *Session) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.Wait(ctx)
	require.False(t, errors.Is(err, context.DeadlineExceeded), "session never settled")
	return err
}

func newFilmSession(t *testing.T, f *scriptedFetcher) *Session {
	t.Helper()
	s, err := New(Options{Catalog: field.Films(), Resource: client.Films}, f, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

// loadedAt returns a session showing page current of total
func loadedAt(t *testing.T, f *scriptedFetcher, current, total int) *Session {
	t.Helper()
	s := newFilmSession(t, f)
	s.Refresh(context.Background())
	f.next(t).reply <- result{page: filmsPage(total, "p1")}
	require.NoError(t, waitSession(t, s))

	if current != 1 {
		s.GoToPage(context.Background(), current)
		c := f.next(t)
		require.Equal(t, fmt.Sprint(current), c.param(compiler.ParamPage))
		c.reply <- result{page: filmsPage(total, fmt.Sprintf("p%d", current))}
		require.NoError(t, waitSession(t, s))
	}
	return s
}

func TestInitialState(t *testing.T) {
	t.Parallel()

	s := newFilmSession(t, newScriptedFetcher())
	snap := s.Snapshot()
	assert.Equal(t, pagination.Idle, snap.Pagination.Phase)
	assert.Equal(t, 1, snap.Pagination.CurrentPage)
	assert.Equal(t, types.SortSpec{By: "film_title", Order: types.Ascending}, snap.ActiveSort)
	assert.Zero(t, snap.PendingFilters.Len())
	assert.False(t, snap.Dirty())
}

func TestRefreshCompilesActiveState(t *testing.T) {
	t.Parallel()

	f := newScriptedFetcher()
	s := newFilmSession(t, f)
	req := s.Refresh(context.Background())
	require.NotNil(t, req)
	assert.Equal(t, pagination.Loading, s.Snapshot().Pagination.Phase)

	c := f.next(t)
	assert.Equal(t, "limit=20&page=1&sort_by=film_title&sort_order=asc", c.query.Encode())
	c.reply <- result{page: filmsPage(3, "Alien", "Heat")}
	require.NoError(t, waitSession(t, s))

	snap := s.Snapshot()
	assert.Equal(t, pagination.Loaded, snap.Pagination.Phase)
	assert.Equal(t, 3, snap.Pagination.TotalPages)
	assert.Equal(t, []string{"Alien", "Heat"}, titles(t, snap.Page))
}

func TestApplyResetsToFirstPage(t *testing.T) {
	t.Parallel()

	f := newScriptedFetcher()
	s := loadedAt(t, f, 3, 5)
	require.Equal(t, 3, s.Snapshot().Pagination.CurrentPage)

	require.NoError(t, s.AddRule("avg_rating"))
	require.NoError(t, s.UpdateRule(0, filter.Patch{Value: util.StringPtr("4.0")}))
	assert.True(t, s.Snapshot().Dirty())

	s.Apply(context.Background())
	c := f.next(t)
	assert.Equal(t, "1", c.param(compiler.ParamPage))
	assert.Equal(t, "4.0", c.param("avg_rating_gte"))
	assert.Equal(t, 1, s.Snapshot().Pagination.CurrentPage)

	c.reply <- result{page: filmsPage(2, "Alien")}
	require.NoError(t, waitSession(t, s))
	snap := s.Snapshot()
	assert.False(t, snap.Dirty())
	assert.Equal(t, 2, snap.Pagination.TotalPages)
}

func TestApplySortChange(t *testing.T) {
	t.Parallel()

	f := newScriptedFetcher()
	s := loadedAt(t, f, 2, 4)

	require.NoError(t, s.SetSort(types.SortSpec{By: "avg_rating", Order: types.Descending}))
	f.none(t)
	assert.Equal(t, "film_title", s.Snapshot().ActiveSort.By)

	s.Apply(context.Background())
	c := f.next(t)
	assert.Equal(t, "avg_rating", c.param(compiler.ParamSortBy))
	assert.Equal(t, "desc", c.param(compiler.ParamSortOrder))
	assert.Equal(t, "1", c.param(compiler.ParamPage))
	c.reply <- result{page: filmsPage(4)}
	require.NoError(t, waitSession(t, s))
}

func TestApplyWithoutChangesDoesNotFetch(t *testing.T) {
	t.Parallel()

	f := newScriptedFetcher()
	s := loadedAt(t, f, 2, 4)
	assert.Nil(t, s.Apply(context.Background()))
	f.none(t)
	assert.Equal(t, 2, s.Snapshot().Pagination.CurrentPage)
}

func TestApplyRetriesAfterError(t *testing.T) {
	t.Parallel()

	f := newScriptedFetcher()
	s := newFilmSession(t, f)
	s.Refresh(context.Background())
	f.next(t).reply <- result{err: &client.TransportError{Status: http.StatusInternalServerError, Message: "database unavailable"}}
	require.Error(t, waitSession(t, s))

	snap := s.Snapshot()
	assert.Equal(t, pagination.Error, snap.Pagination.Phase)
	assert.Equal(t, "failed to fetch films: database unavailable", snap.Pagination.Err)

	require.NotNil(t, s.Apply(context.Background()))
	f.next(t).reply <- result{page: filmsPage(1)}
	require.NoError(t, waitSession(t, s))
	assert.Equal(t, pagination.Loaded, s.Snapshot().Pagination.Phase)
}

func TestCallerCancellationKeepsSessionOutOfError(t *testing.T) {
	t.Parallel()

	f := newScriptedFetcher()
	s := loadedAt(t, f, 1, 3)

	ctx, cancel := context.WithCancel(context.Background())
	s.Next(ctx)
	f.next(t)
	cancel()
	require.NoError(t, waitSession(t, s))

	snap := s.Snapshot()
	assert.NotEqual(t, pagination.Error, snap.Pagination.Phase)
	assert.Empty(t, snap.Pagination.Err)
	assert.Equal(t, []string{"p1"}, titles(t, snap.Page))

	s.Refresh(context.Background())
	f.next(t).reply <- result{page: filmsPage(3, "p2")}
	require.NoError(t, waitSession(t, s))
	assert.Equal(t, pagination.Loaded, s.Snapshot().Pagination.Phase)
	assert.Equal(t, 2, s.Snapshot().Pagination.CurrentPage)
}

func TestPageChangeKeepsFilters(t *testing.T) {
	t.Parallel()

	f := newScriptedFetcher()
	s := newFilmSession(t, f)
	require.NoError(t, s.AddRule("watched_by"))
	require.NoError(t, s.UpdateRule(0, filter.Patch{Value: util.StringPtr("alice")}))
	s.Apply(context.Background())
	f.next(t).reply <- result{page: filmsPage(3)}
	require.NoError(t, waitSession(t, s))

	s.Next(context.Background())
	c := f.next(t)
	assert.Equal(t, "2", c.param(compiler.ParamPage))
	assert.Equal(t, "alice", c.param("watched_by"))
	c.reply <- result{page: filmsPage(3)}
	require.NoError(t, waitSession(t, s))

	assert.Nil(t, s.GoToPage(context.Background(), 2), "same page is not refetched")
	f.none(t)
}

func TestOutOfOrderResponses(t *testing.T) {
	t.Parallel()

	for _, ignoreCtx := range []bool{false, true} {
		t.Run(fmt.Sprintf("ignoreCtx=%v", ignoreCtx), func(t *testing.T) {
			f := newScriptedFetcher()
			s := loadedAt(t, f, 2, 5)
			f.ignoreCtx = ignoreCtx

			s.GoToPage(context.Background(), 3)
			third := f.next(t)
			s.GoToPage(context.Background(), 1)
			first := f.next(t)

			first.reply <- result{page: filmsPage(5, "page one")}
			third.reply <- result{page: filmsPage(5, "page three")}
			require.NoError(t, waitSession(t, s))
			f.none(t)

			snap := s.Snapshot()
			assert.Equal(t, 1, snap.Pagination.CurrentPage)
			assert.Equal(t, []string{"page one"}, titles(t, snap.Page))
		})
	}
}

func TestShrinkingResultTriggersFollowUp(t *testing.T) {
	t.Parallel()

	f := newScriptedFetcher()
	s := loadedAt(t, f, 4, 5)

	s.Refresh(context.Background())
	f.next(t).reply <- result{page: filmsPage(2)}

	followUp := f.next(t)
	assert.Equal(t, "2", followUp.param(compiler.ParamPage))
	followUp.reply <- result{page: filmsPage(2, "last")}
	require.NoError(t, waitSession(t, s))

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Pagination.CurrentPage)
	assert.Equal(t, []string{"last"}, titles(t, snap.Page))
}

func TestCommitPageInput(t *testing.T) {
	t.Parallel()

	f := newScriptedFetcher()
	s := loadedAt(t, f, 1, 5)

	s.SetPageInput("9999")
	assert.Equal(t, "9999", s.Snapshot().Pagination.PageInputText)
	s.CommitPageInput(context.Background())
	c := f.next(t)
	assert.Equal(t, "5", c.param(compiler.ParamPage))
	c.reply <- result{page: filmsPage(5)}
	require.NoError(t, waitSession(t, s))
	assert.Equal(t, "5", s.Snapshot().Pagination.PageInputText)

	s.SetPageInput("abc")
	s.CommitPageInput(context.Background())
	c = f.next(t)
	assert.Equal(t, "1", c.param(compiler.ParamPage))
	c.reply <- result{page: filmsPage(5)}
	require.NoError(t, waitSession(t, s))
}

func TestEditingValidatesInput(t *testing.T) {
	t.Parallel()

	s := newFilmSession(t, newScriptedFetcher())

	var unknown *field.UnknownFieldError
	assert.ErrorAs(t, s.AddRule("box_office"), &unknown)

	var outOfRange *filter.IndexOutOfRangeError
	assert.ErrorAs(t, s.RemoveRule(0), &outOfRange)

	require.NoError(t, s.AddRule("genres"))
	assert.ErrorAs(t, s.UpdateRule(0, filter.Patch{Field: util.StringPtr("budget")}), &unknown)
	assert.ErrorAs(t, s.UpdateRule(3, filter.Patch{Value: util.StringPtr("x")}), &outOfRange)

	assert.Error(t, s.SetSort(types.SortSpec{By: "metadata.year", Order: types.Ascending}))
	assert.Error(t, s.SetSort(types.SortSpec{By: "avg_rating", Order: "sideways"}))
}

func TestRevert(t *testing.T) {
	t.Parallel()

	s := newFilmSession(t, newScriptedFetcher())
	require.NoError(t, s.AddRule("actors"))
	require.NoError(t, s.SetSort(types.SortSpec{By: "num_likes", Order: types.Descending}))
	require.True(t, s.Snapshot().Dirty())

	s.Revert()
	snap := s.Snapshot()
	assert.False(t, snap.Dirty())
	assert.Zero(t, snap.PendingFilters.Len())
}

func TestOnChange(t *testing.T) {
	t.Parallel()

	f := newScriptedFetcher()
	changes := make(chan Snapshot, 4)
	s, err := New(Options{
		Catalog:  field.Users(),
		Resource: client.Users,
		PageSize: 5,
		OnChange: func(snap Snapshot) { changes <- snap },
	}, f, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(s.Close)

	s.Refresh(context.Background())
	c := f.next(t)
	assert.Equal(t, "limit=5&page=1&sort_by=username&sort_order=asc", c.query.Encode())
	c.reply <- result{page: client.Page{TotalPages: 1, TotalItems: 3}}
	require.NoError(t, waitSession(t, s))

	select {
	case snap := <-changes:
		assert.Equal(t, 3, snap.Pagination.TotalItems)
	case <-time.After(time.Second):
		t.Fatal("OnChange not called")
	}
}

func TestNewRejectsMismatchedCatalog(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Catalog: field.Users(), Resource: client.Films}, newScriptedFetcher(), zerolog.Nop())
	assert.Error(t, err)
	_, err = New(Options{Resource: client.Films}, newScriptedFetcher(), zerolog.Nop())
	assert.Error(t, err)
}
