// Package search turns a free-text query into one bounded result list drawn
// from every content collection.
//
// An Aggregator owns the search session of a single presentation layer: the
// current term, the published results, the loading flag and whether the
// search dialog is open. Keystrokes are debounced; only the most recently
// issued lookup may publish results.
package search

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/CodePhantomAI/eranfixp-sub001/internal/metrics"
	"github.com/CodePhantomAI/eranfixp-sub001/internal/models"
)

const (
	DefaultDebounce      = 300 * time.Millisecond
	DefaultLimit         = 10
	DefaultLookupTimeout = 8 * time.Second
)

// Backend looks up published records of one collection whose search fields
// contain term, case-insensitively.
type Backend interface {
	Lookup(ctx context.Context, kind models.Kind, term string, limit int) ([]models.Record, error)
}

// Options tune an Aggregator. Zero values fall back to the defaults.
type Options struct {
	Debounce      time.Duration
	Limit         int
	LookupTimeout time.Duration
	Logger        *slog.Logger
	Metrics       *metrics.Search
}

// State is a snapshot handed to subscribers.
type State struct {
	Term      string
	Results   []models.SearchResult
	Searching bool
	Open      bool
}

type subscription struct {
	id int
	fn func(State)
}

// Aggregator is safe for concurrent use.
type Aggregator struct {
	backend       Backend
	debounce      time.Duration
	limit         int
	lookupTimeout time.Duration
	log           *slog.Logger
	metrics       *metrics.Search

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	term      string
	results   []models.SearchResult
	searching bool
	open      bool
	timer     *time.Timer
	gen       uint64 // bumped by every keystroke
	issued    uint64 // last sequence number handed to a fired lookup
	inflight  uint64 // sequence allowed to publish; 0 when none
	stopped   bool
	subs      []subscription
	nextSub   int
}

// New creates an idle, closed session over backend.
func New(backend Backend, opts Options) *Aggregator {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = DefaultLookupTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Aggregator{
		backend:       backend,
		debounce:      opts.Debounce,
		limit:         opts.Limit,
		lookupTimeout: opts.LookupTimeout,
		log:           opts.Logger,
		metrics:       opts.Metrics,
		ctx:           ctx,
		cancel:        cancel,
		results:       []models.SearchResult{},
	}
}

// SetSearchTerm records a keystroke. A blank term clears the results
// immediately; anything else schedules a lookup once input settles.
func (a *Aggregator) SetSearchTerm(term string) {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.setTermLocked(term)
	st, subs := a.snapshotLocked()
	a.mu.Unlock()

	notify(subs, st)
}

// Open shows the search dialog.
func (a *Aggregator) Open() {
	a.SetOpen(true)
}

// Close hides the search dialog and resets the term and results.
func (a *Aggregator) Close() {
	a.SetOpen(false)
}

// SetOpen toggles the dialog. Closing resets the session.
func (a *Aggregator) SetOpen(open bool) {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.open = open
	if !open {
		a.setTermLocked("")
	}
	st, subs := a.snapshotLocked()
	a.mu.Unlock()

	notify(subs, st)
}

// SearchTerm returns the current raw term.
func (a *Aggregator) SearchTerm() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.term
}

// Results returns a copy of the published results.
func (a *Aggregator) Results() []models.SearchResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return cloneResults(a.results)
}

// IsSearching reports whether a lookup that may still publish is in flight.
func (a *Aggregator) IsSearching() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.searching
}

// IsOpen reports whether the dialog is shown.
func (a *Aggregator) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.open
}

// State returns a snapshot of the whole session.
func (a *Aggregator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, _ := a.snapshotLocked()
	return st
}

// Subscribe registers fn for every state change and returns a function
// removing it. fn runs outside the session lock.
func (a *Aggregator) Subscribe(fn func(State)) func() {
	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs = append(a.subs, subscription{id: id, fn: fn})
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		for i, s := range a.subs {
			if s.id == id {
				a.subs = append(a.subs[:i], a.subs[i+1:]...)
				return
			}
		}
	}
}

// Stop tears the session down: the pending lookup is cancelled, in-flight
// lookups are abandoned and later calls are ignored.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.inflight = 0
	a.searching = false
	a.subs = nil
	a.cancel()
}

func (a *Aggregator) setTermLocked(term string) {
	a.term = term
	a.gen++
	a.inflight = 0
	a.searching = false
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}

	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		a.results = []models.SearchResult{}
		return
	}

	gen := a.gen
	a.timer = time.AfterFunc(a.debounce, func() { a.fire(gen, trimmed) })
}

func (a *Aggregator) fire(gen uint64, term string) {
	a.mu.Lock()
	// A timer that lost the race with Stop or a newer keystroke is stale.
	if a.stopped || gen != a.gen {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	a.issued++
	seq := a.issued
	a.inflight = seq
	a.searching = true
	ctx := a.ctx
	st, subs := a.snapshotLocked()
	a.mu.Unlock()

	notify(subs, st)

	results, err := a.lookup(ctx, term)
	if err != nil {
		a.log.Error("search failed", slog.String("term", term), slog.Any("err", err))
		results = []models.SearchResult{}
	}

	a.mu.Lock()
	if seq != a.inflight {
		a.mu.Unlock()
		a.metrics.ObserveDiscarded()
		a.log.Debug("discarded stale results", slog.Uint64("seq", seq), slog.String("term", term))
		return
	}
	a.inflight = 0
	a.results = results
	a.searching = false
	st, subs = a.snapshotLocked()
	a.mu.Unlock()

	notify(subs, st)
}

func (a *Aggregator) snapshotLocked() (State, []func(State)) {
	st := State{
		Term:      a.term,
		Results:   cloneResults(a.results),
		Searching: a.searching,
		Open:      a.open,
	}
	subs := make([]func(State), 0, len(a.subs))
	for _, s := range a.subs {
		subs = append(subs, s.fn)
	}
	return st, subs
}

func notify(subs []func(State), st State) {
	for _, fn := range subs {
		fn(st)
	}
}

func cloneResults(in []models.SearchResult) []models.SearchResult {
	out := make([]models.SearchResult, len(in))
	copy(out, in)
	return out
}
