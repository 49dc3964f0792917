// Package coordinator issues catalog fetches so that only the most recent
// request can affect the caller's state.
//
// Every Submit supersedes the previous request: its context is cancelled and
// its result, should it still arrive, resolves as ErrCancelled.
package coordinator

import (
	"context"
	"errors"
	"sync"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/client"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/compiler"
	"github.com/rs/zerolog"
)

// ErrCancelled resolves requests that were superseded or closed, and those
// whose caller context was cancelled
var ErrCancelled = errors.New("request cancelled")

// Fetcher performs one page fetch. *client.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, res client.Resource, q compiler.Query) (client.Page, error)
}

// Outcome is the settled result of one request
type Outcome struct {
	Seq  uint64
	Page client.Page
	Err  error
}

func (o Outcome) Cancelled() bool {
	return errors.Is(o.Err, ErrCancelled)
}

// Request is a handle on one submitted fetch
type Request struct {
	Seq     uint64
	done    chan struct{}
	outcome Outcome
}

func (r *Request) resolve(o Outcome) {
	r.outcome = o
	close(r.done)
}

// Done is closed once the request has settled
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the request settles or ctx is done
func (r *Request) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-r.done:
		return r.outcome, r.outcome.Err
	case <-ctx.Done():
		return Outcome{Seq: r.Seq}, ctx.Err()
	}
}

type Coordinator struct {
	fetcher  Fetcher
	resource client.Resource
	log      zerolog.Logger

	mu     sync.Mutex
	seq    uint64
	live   uint64
	cancel context.CancelCauseFunc
	closed bool
	wg     sync.WaitGroup
}

func New(fetcher Fetcher, resource client.Resource, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		fetcher:  fetcher,
		resource: resource,
		log:      log.With().Str("component", "coordinator").Str("resource", resource.Name).Logger(),
	}
}

// Submit cancels the outstanding request and starts fetching q. It returns
// immediately. settle, when not nil, is called from the fetching goroutine
// with every outcome that was not cancelled, before the request resolves.
func (c *Coordinator) Submit(ctx context.Context, q compiler.Query, settle func(Outcome)) *Request {
	c.mu.Lock()
	c.abortLocked()
	c.seq++
	req := &Request{Seq: c.seq, done: make(chan struct{})}

	if c.closed {
		c.mu.Unlock()
		req.resolve(Outcome{Seq: req.Seq, Err: ErrCancelled})
		return req
	}

	rctx, cancel := context.WithCancelCause(ctx)
	c.cancel = cancel
	c.live = req.Seq
	c.wg.Add(1)
	c.mu.Unlock()

	c.log.Debug().Uint64("seq", req.Seq).Str("query", q.Encode()).Msg("Submitting request")
	go c.run(rctx, cancel, req, q, settle)
	return req
}

func (c *Coordinator) run(ctx context.Context, cancel context.CancelCauseFunc, req *Request, q compiler.Query, settle func(Outcome)) {
	defer c.wg.Done()
	defer cancel(nil)

	page, err := c.fetcher.Fetch(ctx, c.resource, q)
	out := Outcome{Seq: req.Seq, Page: page, Err: err}
	switch {
	case errors.Is(context.Cause(ctx), ErrCancelled) || !c.Live(req.Seq):
		c.log.Debug().Uint64("seq", req.Seq).Msg("Discarding superseded request")
		out = Outcome{Seq: req.Seq, Err: ErrCancelled}
	case errors.Is(ctx.Err(), context.Canceled):
		// the caller gave up; a deadline still counts as a failure
		c.retire(req.Seq)
		c.log.Debug().Uint64("seq", req.Seq).Msg("Discarding request cancelled by caller")
		out = Outcome{Seq: req.Seq, Err: ErrCancelled}
	case settle != nil:
		settle(out)
	}
	req.resolve(out)
}

// retire forgets seq when it is still the live request
func (c *Coordinator) retire(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live == seq {
		c.live = 0
		c.cancel = nil
	}
}

// Live reports whether seq is the latest request and has not been cancelled
func (c *Coordinator) Live(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return seq != 0 && seq == c.live
}

// Seq returns the number of the most recently submitted request
func (c *Coordinator) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Cancel aborts the outstanding request, if any
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abortLocked()
}

func (c *Coordinator) abortLocked() {
	if c.cancel != nil {
		c.cancel(ErrCancelled)
		c.cancel = nil
	}
	c.live = 0
}

// Close cancels the outstanding request and waits for every fetch goroutine
// to return. Requests submitted afterwards resolve as ErrCancelled.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.abortLocked()
	c.mu.Unlock()

	c.wg.Wait()
}
