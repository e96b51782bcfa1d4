package query

import (
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"tgwallet/events"
	"tgwallet/metrics"
)

// DefaultStaleTime is how long a successful entry is served without revalidation
const DefaultStaleTime = 30 * time.Second

type entry struct {
	key       Key
	status    Status
	value     any
	hasValue  bool
	err       error
	updatedAt time.Time

	// invalidated entries are refetched before they are served again
	invalidated bool

	// generation is bumped on invalidation; a fetch started under an older
	// generation is never applied
	generation uint64

	// applied is the sequence number of the completion currently held
	applied uint64

	fetching    bool
	fetchingGen uint64
}

// Options configures a Store
type Options struct {
	SessionID string
	StaleTime time.Duration
	Metrics   *metrics.Metrics
	Publisher events.Publisher
}

// Store is the query cache of one session. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry
	seq     uint64
	group   singleflight.Group

	sessionID string
	staleTime time.Duration
	metrics   *metrics.Metrics
	publisher events.Publisher

	now func() time.Time
}

// NewStore creates an empty store
func NewStore(opts Options) *Store {
	staleTime := opts.StaleTime
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	return &Store{
		entries:   make(map[Key]*entry),
		sessionID: opts.SessionID,
		staleTime: staleTime,
		metrics:   opts.Metrics,
		publisher: opts.Publisher,
		now:       time.Now,
	}
}

// SessionID returns the session this store belongs to
func (s *Store) SessionID() string {
	return s.sessionID
}

// entryLocked returns the entry for key, creating an idle one. s.mu must be held.
func (s *Store) entryLocked(key Key) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{key: key, status: StatusIdle}
		s.entries[key] = e
	}
	return e
}

// Get returns the last successful value for key
func (s *Store) Get(key Key) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !e.hasValue {
		return nil, false
	}
	return e.value, true
}

// Set stores value as a fresh successful result for key. Fetches started
// before the call are discarded when they complete.
func (s *Store) Set(key Key, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryLocked(key)
	s.seq++
	e.applied = s.seq
	e.generation++
	e.status = StatusSuccess
	e.value = value
	e.hasValue = true
	e.err = nil
	e.updatedAt = s.now()
	e.invalidated = false
	s.group.Forget(key.String())
}

// Invalidate marks keys so their next read waits for a new fetch. A fetch
// already in flight for an invalidated key is not reused.
func (s *Store) Invalidate(keys ...Key) []Key {
	return s.invalidate(s.publisher, keys...)
}

// InvalidatePrefix invalidates every key of operation op, whatever its params
func (s *Store) InvalidatePrefix(op string) []Key {
	return s.invalidate(s.publisher, s.keysOf(op)...)
}

func (s *Store) keysOf(op string) []Key {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []Key
	for k := range s.entries {
		if k.Op == op {
			keys = append(keys, k)
		}
	}
	return keys
}

func (s *Store) invalidate(pub events.Publisher, keys ...Key) []Key {
	if len(keys) == 0 {
		return nil
	}

	s.mu.Lock()
	for _, k := range keys {
		e := s.entryLocked(k)
		e.invalidated = true
		e.generation++
		s.group.Forget(k.String())
		s.metrics.CacheInvalidation(k.Op)
	}
	s.mu.Unlock()

	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	log.WithFields(log.Fields{
		"keys": names,
	}).Debug("Invalidated query cache entries")

	if pub != nil {
		pub.Publish(events.CacheInvalidatedEvent{SessionID: s.sessionID, Keys: names})
	}
	return keys
}

// Clear drops every cached value. In-flight fetches are discarded when they complete.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.entries {
		s.group.Forget(k.String())
		*e = entry{key: k, status: StatusIdle, generation: e.generation + 1}
	}
}

// Trim keeps at most limit entries of operation op, dropping the least
// recently updated ones first. Entries with a fetch in flight are kept.
// It returns the number of dropped entries.
func (s *Store) Trim(op string, limit int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []*entry
	total := 0
	for k, e := range s.entries {
		if k.Op != op {
			continue
		}
		total++
		if !(e.fetching && e.fetchingGen == e.generation) {
			candidates = append(candidates, e)
		}
	}
	if total <= limit {
		return 0
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].updatedAt.Before(candidates[j].updatedAt)
	})

	dropped := 0
	for _, e := range candidates {
		if total-dropped <= limit {
			break
		}
		s.group.Forget(e.key.String())
		delete(s.entries, e.key)
		dropped++
	}
	if dropped > 0 {
		log.WithFields(log.Fields{
			"operation": op,
			"dropped":   dropped,
		}).Debug("Trimmed query cache entries")
	}
	return dropped
}

// Snapshot describes one entry
type Snapshot struct {
	Key         Key       `json:"-"`
	Status      Status    `json:"status"`
	HasValue    bool      `json:"has_value"`
	Err         error     `json:"-"`
	UpdatedAt   time.Time `json:"updated_at"`
	Stale       bool      `json:"stale"`
	Invalidated bool      `json:"invalidated"`
	Fetching    bool      `json:"fetching"`
}

// Snapshot returns the state of key without triggering a fetch
func (s *Store) Snapshot(key Key) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return Snapshot{Key: key, Status: StatusIdle}
	}
	return Snapshot{
		Key:         key,
		Status:      e.status,
		HasValue:    e.hasValue,
		Err:         e.err,
		UpdatedAt:   e.updatedAt,
		Stale:       e.hasValue && s.isStaleLocked(e, s.staleTime),
		Invalidated: e.invalidated,
		Fetching:    e.fetching && e.fetchingGen == e.generation,
	}
}

// Len returns the number of tracked keys
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) isStaleLocked(e *entry, staleTime time.Duration) bool {
	return s.now().Sub(e.updatedAt) >= staleTime
}

// complete applies the outcome of a fetch unless a newer one already landed
// or the entry was invalidated since the fetch started
func (s *Store) complete(key Key, seq, generation uint64, value any, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if ok && e.fetchingGen == generation {
		e.fetching = false
	}
	if !ok || generation != e.generation || seq <= e.applied {
		log.WithFields(log.Fields{
			"key": key.String(),
			"seq": seq,
		}).Debug("Discarding superseded query result")
		s.metrics.CacheLookup(key.Op, "discarded")
		return false
	}

	e.applied = seq
	if err != nil {
		e.status = StatusError
		e.err = err
		return true
	}

	e.status = StatusSuccess
	e.value = value
	e.hasValue = true
	e.err = nil
	e.updatedAt = s.now()
	e.invalidated = false
	return true
}
