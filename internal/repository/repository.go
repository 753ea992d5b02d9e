// Package repository exposes typed access to the store plus reactive watch
// handles that re-run a query after every relevant write.
package repository

import (
	"context"

	"github.com/sadopc/focusplan/internal/store"
)

// Repository wraps a Store. Store errors are returned unchanged.
type Repository struct {
	store *store.Store
}

func New(s *store.Store) *Repository {
	return &Repository{store: s}
}

// Update is one emission of a watch handle: the query result or the error
// the query failed with.
type Update[T any] struct {
	Value T
	Err   error
}

// watch emits query's result once immediately and again after each write to
// one of tables. Bursts of writes coalesce into a single re-query. The
// returned channel is closed when ctx is done or the store is closed.
func watch[T any](ctx context.Context, s *store.Store, tables []store.Table, query func() (T, error)) <-chan Update[T] {
	out := make(chan Update[T])
	changes, cancel := s.Subscribe(tables...)

	go func() {
		defer close(out)
		defer cancel()

		emit := func() bool {
			v, err := query()
			select {
			case out <- Update[T]{Value: v, Err: err}:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				if !emit() {
					return
				}
			}
		}
	}()

	return out
}
