package query

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"tgwallet/events"
)

// Query describes one cached read
type Query[T any] struct {
	Key Key
	Fn  func(ctx context.Context) (T, error)

	// Enabled gates the read. A disabled query stays idle and never calls Fn.
	// nil means always enabled.
	Enabled func() bool

	// StaleTime overrides the store default when > 0
	StaleTime time.Duration
}

// State is what a view sees for a query
type State[T any] struct {
	Status    Status
	Data      T
	HasData   bool
	Err       error
	UpdatedAt time.Time

	// Stale is set when Data is served while a background refetch runs
	Stale bool
}

// Fetch reads q through the store.
//
// A fresh successful entry is returned as is. A stale one is returned
// immediately and revalidated in the background. Otherwise Fetch waits for a
// fetch, joining the one already in flight for the same key if there is one.
// The shared fetch is not tied to ctx: when ctx ends the caller stops waiting
// but the fetch still completes and fills the cache.
func Fetch[T any](ctx context.Context, s *Store, q Query[T]) State[T] {
	op := q.Key.Op
	if q.Enabled != nil && !q.Enabled() {
		s.metrics.CacheLookup(op, "disabled")
		return State[T]{Status: StatusIdle}
	}

	staleTime := q.StaleTime
	if staleTime <= 0 {
		staleTime = s.staleTime
	}

	s.mu.Lock()
	e := s.entryLocked(q.Key)

	if e.status == StatusSuccess && !e.invalidated {
		state := stateOf[T](e)
		if !s.isStaleLocked(e, staleTime) {
			s.mu.Unlock()
			s.metrics.CacheLookup(op, "hit")
			return state
		}

		start(ctx, s, e, q)
		s.mu.Unlock()
		s.metrics.CacheLookup(op, "stale")
		state.Stale = true
		return state
	}

	var previous State[T]
	if e.hasValue {
		previous = stateOf[T](e)
	}
	ch, joined := start(ctx, s, e, q)
	if e.status == StatusIdle {
		e.status = StatusPending
	}
	s.mu.Unlock()

	if joined {
		s.metrics.CacheLookup(op, "joined")
	} else {
		s.metrics.CacheLookup(op, "miss")
	}

	select {
	case res := <-ch:
		if res.Err != nil {
			return State[T]{
				Status:    StatusError,
				Err:       res.Err,
				Data:      previous.Data,
				HasData:   previous.HasData,
				UpdatedAt: previous.UpdatedAt,
			}
		}
		v, err := valueAs[T](q.Key, res.Val)
		if err != nil {
			return State[T]{Status: StatusError, Err: err}
		}
		return State[T]{Status: StatusSuccess, Data: v, HasData: true, UpdatedAt: s.now()}

	case <-ctx.Done():
		previous.Status = StatusPending
		previous.Err = ctx.Err()
		return previous
	}
}

// start issues q.Fn for e's key, or joins the call already in flight.
// s.mu must be held.
func start[T any](ctx context.Context, s *Store, e *entry, q Query[T]) (<-chan singleflight.Result, bool) {
	s.seq++
	seq, gen := s.seq, e.generation
	joined := e.fetching && e.fetchingGen == gen
	e.fetching = true
	e.fetchingGen = gen

	key := q.Key
	detached := context.WithoutCancel(ctx)

	ch := s.group.DoChan(key.String(), func() (any, error) {
		v, err := call(detached, key, q.Fn)
		s.complete(key, seq, gen, v, err)
		return v, err
	})
	return ch, joined
}

func call[T any](ctx context.Context, key Key, fn func(context.Context) (T, error)) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"key":   key.String(),
				"panic": r,
			}).Error("Query function panicked")
			err = fmt.Errorf("query %s panicked: %v", key, r)
		}
	}()
	return fn(ctx)
}

func stateOf[T any](e *entry) State[T] {
	v, err := valueAs[T](e.key, e.value)
	if err != nil {
		return State[T]{Status: StatusError, Err: err}
	}
	return State[T]{
		Status:    e.status,
		Data:      v,
		HasData:   e.hasValue,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
	}
}

func valueAs[T any](key Key, v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cached value for %s has type %T", key, v)
	}
	return t, nil
}

// Mutation describes a write that makes cached reads outdated
type Mutation[T any] struct {
	Op string
	Fn func(ctx context.Context) (T, error)

	// Invalidates lists exact keys to invalidate on success
	Invalidates []Key

	// InvalidateOps invalidates every key of these operations on success
	InvalidateOps []string
}

// Mutate runs m.Fn. On success the dependent keys are invalidated before
// Mutate returns, so the next read of any of them issues a new fetch.
// Events raised along the way are published once the mutation has settled.
func Mutate[T any](ctx context.Context, s *Store, m Mutation[T]) (T, error) {
	batch := events.NewBatch(s.publisher)

	v, err := m.Fn(ctx)

	var names []string
	if err == nil {
		keys := append([]Key(nil), m.Invalidates...)
		for _, op := range m.InvalidateOps {
			keys = append(keys, s.keysOf(op)...)
		}
		for _, k := range s.invalidate(batch, keys...) {
			names = append(names, k.String())
		}
	}

	log.WithFields(log.Fields{
		"operation":   m.Op,
		"success":     err == nil,
		"invalidated": names,
	}).Debug("Mutation settled")

	batch.Publish(events.MutationCompletedEvent{
		SessionID:   s.sessionID,
		Operation:   m.Op,
		Success:     err == nil,
		Invalidated: names,
	})
	batch.Flush()

	return v, err
}
