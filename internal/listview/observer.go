package listview

import (
	"context"
	"time"
)

// Outcome classifies a finished load.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeError      Outcome = "error"
	OutcomeSuperseded Outcome = "superseded"
)

// Observer is notified once per finished load.
type Observer interface {
	ObserveLoad(view string, strategy Strategy, outcome Outcome, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveLoad(string, Strategy, Outcome, time.Duration) {}

type ctxKey string

const ctxRefresh ctxKey = "listview_refresh"

// WithRefresh marks ctx as belonging to an explicit refresh so read-through
// caches fetch from the origin.
func WithRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxRefresh, true)
}

// IsRefresh reports whether ctx was marked by WithRefresh.
func IsRefresh(ctx context.Context) bool {
	v, _ := ctx.Value(ctxRefresh).(bool)
	return v
}
