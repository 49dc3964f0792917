// Package session holds the state of one browsing session over a catalog
// resource: pending and active filters and sort, pagination, and the current
// result page.
//
// All state changes happen under a single mutex, either in an action handler
// or when a request completes. Lock order is session, then coordinator.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/client"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/compiler"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/coordinator"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/field"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/filter"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/pagination"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/types"
	"github.com/rs/zerolog"
)

const DefaultPageSize = 20

type Options struct {
	Catalog  *field.Catalog
	Resource client.Resource
	PageSize int
	// Sort defaults to the resource's natural ordering
	Sort types.SortSpec
	// OnChange, when set, is called after a response has been reconciled.
	// It runs without the session lock held.
	OnChange func(Snapshot)
}

// DefaultSort is the initial ordering of a resource
func DefaultSort(res client.Resource) types.SortSpec {
	if res.Name == client.Users.Name {
		return types.SortSpec{By: "username", Order: types.Ascending}
	}
	return types.SortSpec{By: "film_title", Order: types.Ascending}
}

// Snapshot is a consistent copy of the session state
type Snapshot struct {
	Resource       client.Resource
	PendingFilters filter.Set
	ActiveFilters  filter.Set
	PendingSort    types.SortSpec
	ActiveSort     types.SortSpec
	Pagination     pagination.State
	Page           client.Page
	Query          compiler.Query
}

// Dirty reports whether there are edits that have not been applied
func (s Snapshot) Dirty() bool {
	return !s.PendingFilters.Equal(s.ActiveFilters) || s.PendingSort != s.ActiveSort
}

type Session struct {
	cat      *field.Catalog
	res      client.Resource
	pageSize int
	coord    *coordinator.Coordinator
	onChange func(Snapshot)
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	pendingFilters filter.Set
	activeFilters  filter.Set
	pendingSort    types.SortSpec
	activeSort     types.SortSpec
	pager          pagination.State
	page           client.Page
	query          compiler.Query
	latest         *coordinator.Request
}

func New(opts Options, fetcher coordinator.Fetcher, log zerolog.Logger) (*Session, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("session requires a field catalog")
	}
	if opts.Catalog.Resource() != opts.Resource.Name {
		return nil, fmt.Errorf("catalog %q does not describe resource %q", opts.Catalog.Resource(), opts.Resource.Name)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Sort.By == "" {
		opts.Sort = DefaultSort(opts.Resource)
	}
	if opts.Sort.Order == "" {
		opts.Sort.Order = types.Ascending
	}
	if !opts.Catalog.Sortable(opts.Sort.By) {
		return nil, fmt.Errorf("cannot sort %s by %q", opts.Resource.Name, opts.Sort.By)
	}

	log = log.With().Str("component", "session").Str("resource", opts.Resource.Name).Logger()
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cat:         opts.Catalog,
		res:         opts.Resource,
		pageSize:    opts.PageSize,
		coord:       coordinator.New(fetcher, opts.Resource, log),
		onChange:    opts.OnChange,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
		pendingSort: opts.Sort,
		activeSort:  opts.Sort,
		pager:       pagination.New(),
	}, nil
}

func (s *Session) Catalog() *field.Catalog {
	return s.cat
}

func (s *Session) Resource() client.Resource {
	return s.res
}

func (s *Session) PageSize() int {
	return s.pageSize
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Resource:       s.res,
		PendingFilters: s.pendingFilters,
		ActiveFilters:  s.activeFilters,
		PendingSort:    s.pendingSort,
		ActiveSort:     s.activeSort,
		Pagination:     s.pager,
		Page:           s.page,
		Query:          s.query,
	}
}

// AddRule appends a default rule for name to the pending filters
func (s *Session) AddRule(name string) error {
	if _, ok := s.cat.Lookup(name); !ok {
		return &field.UnknownFieldError{Field: name}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingFilters = s.pendingFilters.Add(s.cat, name)
	return nil
}

// UpdateRule patches the pending rule at index i
func (s *Session) UpdateRule(i int, patch filter.Patch) error {
	if patch.Field != nil {
		if _, ok := s.cat.Lookup(*patch.Field); !ok {
			return &field.UnknownFieldError{Field: *patch.Field}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIndexLocked(i); err != nil {
		return err
	}
	s.pendingFilters = s.pendingFilters.Update(s.cat, i, patch)
	return nil
}

// RemoveRule drops the pending rule at index i
func (s *Session) RemoveRule(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIndexLocked(i); err != nil {
		return err
	}
	s.pendingFilters = s.pendingFilters.Remove(i)
	return nil
}

func (s *Session) checkIndexLocked(i int) error {
	if i < 0 || i >= s.pendingFilters.Len() {
		return &filter.IndexOutOfRangeError{Index: i, Len: s.pendingFilters.Len()}
	}
	return nil
}

// SetSort changes the pending sort
func (s *Session) SetSort(want types.SortSpec) error {
	if !s.cat.Sortable(want.By) {
		return fmt.Errorf("cannot sort %s by %q", s.res.Name, want.By)
	}
	if want.Order != types.Ascending && want.Order != types.Descending {
		return fmt.Errorf("invalid sort order %q", want.Order)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingSort = want
	return nil
}

// Revert discards pending edits
func (s *Session) Revert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingFilters = s.activeFilters
	s.pendingSort = s.activeSort
}

// Apply commits the pending filters and sort. When they differ from the
// active ones the session returns to page 1 and fetches it. Applying
// unchanged edits only fetches when no page has been loaded successfully.
func (s *Session) Apply(ctx context.Context) *coordinator.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := !s.pendingFilters.Equal(s.activeFilters) || s.pendingSort != s.activeSort
	if !changed && s.pager.Phase == pagination.Loaded {
		return nil
	}

	s.activeFilters = filter.Commit(s.pendingFilters)
	s.activeSort = s.pendingSort
	if changed {
		s.pager = pagination.ResetToFirstPage(s.pager)
	}
	return s.fetchLocked(ctx)
}

// Refresh fetches the current page again
func (s *Session) Refresh(ctx context.Context) *coordinator.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchLocked(ctx)
}

// GoToPage navigates to page n, clamped to the known range
func (s *Session) GoToPage(ctx context.Context, n int) *coordinator.Request {
	return s.navigate(ctx, func(p pagination.State) pagination.State {
		return pagination.GoToPage(p, n)
	})
}

func (s *Session) Next(ctx context.Context) *coordinator.Request {
	return s.navigate(ctx, pagination.Next)
}

func (s *Session) Prev(ctx context.Context) *coordinator.Request {
	return s.navigate(ctx, pagination.Prev)
}

// SetPageInput records uncommitted page input
func (s *Session) SetPageInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pager = pagination.SetPageInputText(s.pager, text)
}

// CommitPageInput resolves the page input and navigates to it
func (s *Session) CommitPageInput(ctx context.Context) *coordinator.Request {
	return s.navigate(ctx, pagination.CommitPageInput)
}

// navigate applies a page transition and fetches when the page changed
func (s *Session) navigate(ctx context.Context, move func(pagination.State) pagination.State) *coordinator.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.pager.CurrentPage
	s.pager = move(s.pager)
	if s.pager.CurrentPage == prev {
		return nil
	}
	return s.fetchLocked(ctx)
}

func (s *Session) fetchLocked(ctx context.Context) *coordinator.Request {
	s.query = compiler.Compile(s.cat, s.activeFilters, s.activeSort, types.PageRequest{
		Page:     s.pager.CurrentPage,
		PageSize: s.pageSize,
	})
	s.pager = pagination.BeginLoading(s.pager)
	s.latest = s.coord.Submit(ctx, s.query, s.settle)
	s.log.Debug().Uint64("seq", s.latest.Seq).Int("page", s.pager.CurrentPage).Msg("Fetching page")
	return s.latest
}

// settle reconciles a completed request. Results of requests that are no
// longer the latest are dropped.
func (s *Session) settle(o coordinator.Outcome) {
	s.mu.Lock()
	if !s.coord.Live(o.Seq) {
		s.mu.Unlock()
		return
	}

	if o.Err != nil {
		s.log.Warn().Err(o.Err).Uint64("seq", o.Seq).Msg("Fetch failed")
		s.pager = pagination.Fail(s.pager, fmt.Sprintf("failed to fetch %s: %v", s.res.Name, o.Err))
	} else {
		prev := s.pager.CurrentPage
		s.pager = pagination.ApplyResponse(s.pager, o.Page.TotalPages, o.Page.TotalItems)
		s.page = o.Page
		if s.pager.CurrentPage != prev {
			s.log.Debug().Int("from", prev).Int("to", s.pager.CurrentPage).Msg("Result set shrank, fetching last page")
			s.fetchLocked(s.ctx)
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(snap)
	}
}

// Wait blocks until the latest request, including any follow-up it
// triggered, has settled. A cancelled request is not an error.
func (s *Session) Wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		req := s.latest
		s.mu.Unlock()
		if req == nil {
			return nil
		}

		_, err := req.Wait(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.mu.Lock()
		same := s.latest == req
		s.mu.Unlock()
		if same {
			if errors.Is(err, coordinator.ErrCancelled) {
				return nil
			}
			return err
		}
	}
}

// Close aborts outstanding requests and waits for them to return
func (s *Session) Close() {
	s.cancel()
	s.coord.Close()
}
