// Package view holds the list controllers behind the admin screens. Each
// controller owns one request slot, keeps the page it last committed and
// applies optimistic updates after successful mutations.
package view

import (
	"context"
	"errors"
	"sync"

	"github.com/and161185/folio-admin/internal/errs"
	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/slot"
)

// ErrSuperseded is returned by Load when a newer load replaced the result.
// It is classified ABORTED so it never reaches the user.
var ErrSuperseded = &errs.Error{Kind: errs.KindAborted, Op: "view.load", Err: errors.New("superseded by a newer request")}

// ErrBusy is returned when a mutation is requested while another one is
// still running on the same list.
var ErrBusy = errors.New("view: another change is in progress")

// list is the shared latest-wins page holder.
type list[T any] struct {
	slot slot.Slot
	id   func(T) string

	mu      sync.Mutex
	page    model.Page[T]
	loaded  bool
	pending string
}

// load runs fetch in a fresh slot request and commits its page only if no
// newer load started meanwhile.
func (l *list[T]) load(ctx context.Context, fetch func(context.Context) (model.Page[T], error)) (model.Page[T], error) {
	ctx, t := l.slot.Start(ctx)
	p, err := fetch(ctx)
	if err != nil {
		if errs.IsAborted(err) || !l.slot.Latest(t) {
			return model.Page[T]{}, ErrSuperseded
		}
		return model.Page[T]{}, err
	}
	ok := l.slot.Commit(t, func() {
		l.mu.Lock()
		l.page, l.loaded = p, true
		l.mu.Unlock()
	})
	if !ok {
		return model.Page[T]{}, ErrSuperseded
	}
	return p, nil
}

func (l *list[T]) current() (model.Page[T], bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page, l.loaded
}

// mutate runs do for id unless another mutation is pending. On success, and
// on NOT_FOUND when dropMissing is set, apply rewrites the held page.
func (l *list[T]) mutate(id string, dropMissing bool, do func() error, apply func(model.Page[T]) model.Page[T]) error {
	l.mu.Lock()
	if l.pending != "" {
		l.mu.Unlock()
		return ErrBusy
	}
	l.pending = id
	l.mu.Unlock()

	err := do()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = ""
	if err == nil || (dropMissing && errors.Is(err, errs.ErrNotFound)) {
		l.page = apply(l.page)
	}
	return err
}

func (l *list[T]) remove(id string) func(model.Page[T]) model.Page[T] {
	return func(p model.Page[T]) model.Page[T] {
		return p.WithoutItem(func(it T) bool { return l.id(it) == id })
	}
}

func (l *list[T]) pendingID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

func (l *list[T]) close() { l.slot.Stop() }
