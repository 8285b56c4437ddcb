// Package livequery adapts raw gateway subscriptions into typed, ordered
// lists. Each remote change arrives as a full-replace snapshot; the package
// decodes every record through a caller-supplied pure function and hands the
// assembled list to the change callback. Applying a duplicate snapshot is
// observably a no-op because the list is rebuilt from scratch each time.
package livequery

import (
	"context"
	"sync"

	"github.com/centinela-app/centinela/internal/client/realtime"
)

// DecodeFunc turns one raw record into its typed form. Implementations are
// total: a malformed field degrades inside the record (sentinel timestamps,
// empty strings), it never fails the snapshot.
type DecodeFunc[T any] func(rec realtime.Record) T

// ChangeFunc receives the freshly decoded, fully replaced list.
type ChangeFunc[T any] func(list []T)

// DecodeSnapshot assembles the typed list for one snapshot, preserving the
// server's ordering. Pure; usable without any transport in tests.
func DecodeSnapshot[T any](snap realtime.Snapshot, decode DecodeFunc[T]) []T {
	list := make([]T, 0, len(snap))
	for _, rec := range snap {
		list = append(list, decode(rec))
	}
	return list
}

// Subscription is one live typed query. Unsubscribe is idempotent, and once
// it returns no further ChangeFunc invocation will happen; this is what lets
// a view tear down without racing a late update.
//
// ChangeFunc must not call Unsubscribe on its own Subscription.
type Subscription struct {
	cancel realtime.CancelFunc
	stop   chan struct{}
	once   sync.Once

	// mu serializes onChange against Unsubscribe: Unsubscribe acquires it
	// to wait out an in-flight callback before returning.
	mu     sync.Mutex
	closed bool
}

// Subscribe opens q on conn and starts delivering decoded lists to onChange,
// in snapshot delivery order, one at a time.
func Subscribe[T any](ctx context.Context, conn realtime.Conn, q realtime.Query, decode DecodeFunc[T], onChange ChangeFunc[T]) (*Subscription, error) {
	ch, cancel, err := conn.Subscribe(ctx, q)
	if err != nil {
		return nil, err
	}

	s := &Subscription{
		cancel: cancel,
		stop:   make(chan struct{}),
	}

	go func() {
		for {
			select {
			case <-s.stop:
				return
			case snap, open := <-ch:
				if !open {
					return
				}
				list := DecodeSnapshot(snap, decode)

				s.mu.Lock()
				if s.closed {
					s.mu.Unlock()
					return
				}
				onChange(list)
				s.mu.Unlock()
			}
		}
	}()

	return s, nil
}

// Unsubscribe tears the query down. Safe to call repeatedly.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		close(s.stop)
		s.cancel()
	})
}
