package listview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrSuperseded is returned by a load whose result was discarded because a
// newer load was dispatched on the same view while it was in flight.
var ErrSuperseded = errors.New("listview: load superseded by a newer request")

// LoadError wraps a data source failure. It is the only failure kind a
// view records.
type LoadError struct {
	View     string
	Strategy Strategy
	Err      error
}

func (e *LoadError) Error() string {
	return "listview " + e.View + " (" + string(e.Strategy) + " load): " + e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// State is a point-in-time copy of a view.
type State[T any] struct {
	Request PageRequest    `json:"request"`
	Result  *PageResult[T] `json:"result,omitempty"`
	Loading bool           `json:"loading"`
	Err     error          `json:"-"`
	Error   string         `json:"error,omitempty"`
	Seq     uint64         `json:"seq"`
}

// Option configures a View.
type Option func(*options)

type options struct {
	observer Observer
}

// WithObserver reports every finished load to o.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		if o != nil {
			opts.observer = o
		}
	}
}

// View is the state machine behind one mounted list. Loads may be issued
// from concurrent goroutines; only the most recently dispatched one updates
// the state.
type View[T any] struct {
	name     string
	source   Source[T]
	observer Observer

	mu      sync.Mutex
	req     PageRequest
	result  *PageResult[T]
	loading bool
	err     error
	seq     uint64
}

// New creates a view that has not loaded yet.
func New[T any](name string, source Source[T], initial PageRequest, opts ...Option) *View[T] {
	o := options{observer: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	initial.Normalize()
	return &View[T]{
		name:     name,
		source:   source,
		observer: o.observer,
		req:      initial.Clone(),
	}
}

// Name returns the view name used in logs and metrics.
func (v *View[T]) Name() string { return v.name }

// Load fetches req and, unless a newer load was dispatched meanwhile, makes
// it the current state. On failure the previous result stays in place and
// the error is recorded.
func (v *View[T]) Load(ctx context.Context, req PageRequest) (PageResult[T], error) {
	req.Normalize()

	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.req = req.Clone()
	v.loading = true
	v.mu.Unlock()

	strategy := v.source.Strategy(req)
	start := time.Now()
	res, err := v.source.Load(ctx, req)
	elapsed := time.Since(start)

	outcome, err := v.commit(seq, strategy, res, err)
	v.observer.ObserveLoad(v.name, strategy, outcome, elapsed)

	switch outcome {
	case OutcomeSuperseded:
		log.Debug().
			Str("view", v.name).
			Uint64("seq", seq).
			Dur("elapsed", elapsed).
			Msg("listview: discarding superseded load")
		return PageResult[T]{}, ErrSuperseded
	case OutcomeError:
		log.Warn().
			Err(err).
			Str("view", v.name).
			Str("strategy", string(strategy)).
			Int("page", req.Page).
			Msg("listview: load failed")
		return PageResult[T]{}, err
	}
	return res, nil
}

func (v *View[T]) commit(seq uint64, strategy Strategy, res PageResult[T], err error) (Outcome, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if seq != v.seq {
		return OutcomeSuperseded, nil
	}
	v.loading = false
	if err != nil {
		v.err = &LoadError{View: v.name, Strategy: strategy, Err: err}
		return OutcomeError, v.err
	}
	v.err = nil
	v.result = &res
	v.req.Page = res.CurrentPage
	return OutcomeOK, nil
}

// SetPage loads page n, clamped to the known page range. Asking for the
// page already shown does nothing, unless a failed load left the request
// pointing at another page; then the shown page is loaded again so request
// and result agree.
func (v *View[T]) SetPage(ctx context.Context, n int) (PageResult[T], error) {
	v.mu.Lock()
	loaded := v.result != nil
	var shown PageResult[T]
	if loaded {
		shown = *v.result
	}
	req := v.req.Clone()
	v.mu.Unlock()

	if !loaded {
		req.Page = max(n, 1)
		return v.Load(ctx, req)
	}
	settled := req.Page == shown.CurrentPage
	if n == shown.CurrentPage && settled {
		return shown, nil
	}
	n = ClampPage(n, shown.TotalPages)
	if n == shown.CurrentPage && settled {
		return shown, nil
	}
	req.Page = n
	return v.Load(ctx, req)
}

// SetSort changes the ordering and goes back to the first page.
func (v *View[T]) SetSort(ctx context.Context, sortBy string, order SortOrder) (PageResult[T], error) {
	req := v.Request()
	req.SortBy = sortBy
	req.SortOrder = order
	req.Page = 1
	return v.Load(ctx, req)
}

// SetFilter sets or, for a nil or empty value, clears one filter and goes
// back to the first page.
func (v *View[T]) SetFilter(ctx context.Context, key string, value any) (PageResult[T], error) {
	req := v.Request()
	if req.Filters == nil {
		req.Filters = Filters{}
	}
	req.Filters[key] = value
	req.Filters = req.Filters.Clone()
	req.Page = 1
	return v.Load(ctx, req)
}

// Refresh reloads the current request.
func (v *View[T]) Refresh(ctx context.Context) (PageResult[T], error) {
	return v.Load(WithRefresh(ctx), v.Request())
}

// Request returns a copy of the current request.
func (v *View[T]) Request() PageRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.req.Clone()
}

// State returns a copy of the view state.
func (v *View[T]) State() State[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	st := State[T]{
		Request: v.req.Clone(),
		Loading: v.loading,
		Err:     v.err,
		Seq:     v.seq,
	}
	if v.result != nil {
		res := *v.result
		res.Items = append([]T(nil), v.result.Items...)
		if res.Items == nil {
			res.Items = []T{}
		}
		st.Result = &res
	}
	if v.err != nil {
		st.Error = v.err.Error()
	}
	return st
}
