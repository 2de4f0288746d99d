package views

import (
	"context"

	"oldphonedeals/internal/listview"
)

// Handle is a mounted view with its item type erased, so views over
// different domain types can share one registry.
type Handle interface {
	Name() string
	Request() listview.PageRequest
	Load(ctx context.Context, req listview.PageRequest) error
	SetPage(ctx context.Context, n int) error
	SetSort(ctx context.Context, sortBy string, order listview.SortOrder) error
	SetFilter(ctx context.Context, key string, value any) error
	Refresh(ctx context.Context) error
	// Snapshot returns the view's listview.State, ready for encoding.
	Snapshot() any
}

type handle[T any] struct {
	v *listview.View[T]
}

func newHandle[T any](name string, src listview.Source[T], req listview.PageRequest, deps Deps) Handle {
	var opts []listview.Option
	if deps.Observer != nil {
		opts = append(opts, listview.WithObserver(deps.Observer))
	}
	return &handle[T]{v: listview.New(name, src, req, opts...)}
}

func (h *handle[T]) Name() string                  { return h.v.Name() }
func (h *handle[T]) Request() listview.PageRequest { return h.v.Request() }
func (h *handle[T]) Snapshot() any                 { return h.v.State() }

func (h *handle[T]) Load(ctx context.Context, req listview.PageRequest) error {
	_, err := h.v.Load(ctx, req)
	return err
}

func (h *handle[T]) SetPage(ctx context.Context, n int) error {
	_, err := h.v.SetPage(ctx, n)
	return err
}

func (h *handle[T]) SetSort(ctx context.Context, sortBy string, order listview.SortOrder) error {
	_, err := h.v.SetSort(ctx, sortBy, order)
	return err
}

func (h *handle[T]) SetFilter(ctx context.Context, key string, value any) error {
	_, err := h.v.SetFilter(ctx, key, value)
	return err
}

func (h *handle[T]) Refresh(ctx context.Context) error {
	_, err := h.v.Refresh(ctx)
	return err
}
