package cache

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(now)
}

// DefaultLoadTimeout bounds a shared load once it no longer follows its first caller's context.
const DefaultLoadTimeout = 30 * time.Second

// Store is an in-process TTL cache. Concurrent loads of one key share a single loader call,
// and a load that overlaps an invalidation is returned to its callers but not kept.
type Store[V any] struct {
	mu          sync.Mutex
	entries     map[string]entry[V]
	generation  uint64
	ttl         time.Duration
	loadTimeout time.Duration
	flight      singleflight.Group
	now         func() time.Time
}

// NewStore with ttl <= 0 keeps entries until they are invalidated.
func NewStore[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		entries:     make(map[string]entry[V]),
		ttl:         ttl,
		loadTimeout: DefaultLoadTimeout,
		now:         time.Now,
	}
}

// SetLoadTimeout overrides DefaultLoadTimeout; d <= 0 keeps the current value.
func (s *Store[V]) SetLoadTimeout(d time.Duration) {
	if d > 0 {
		s.loadTimeout = d
	}
}

func (s *Store[V]) Get(_ context.Context, key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok, _ := s.lookupLocked(key)
	return v, ok
}

func (s *Store[V]) Set(_ context.Context, key string, value V) {
	if key == "" {
		return
	}
	s.mu.Lock()
	s.storeLocked(key, value)
	s.mu.Unlock()
}

// DeletePrefix evicts every key starting with prefix and abandons loads still in flight.
func (s *Store[V]) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
}

// GetOrLoad returns the cached value or runs loader once for all concurrent callers of key.
// Loader errors are not cached. The shared load keeps ctx values but not its cancellation, so
// one caller giving up does not fail the others; that caller returns ctx.Err() right away.
func (s *Store[V]) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (V, error)) (V, error) {
	var zero V
	if loader == nil {
		return zero, errors.New("cache: loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	s.mu.Lock()
	v, ok, gen := s.lookupLocked(key)
	s.mu.Unlock()
	if ok {
		return v, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(key+"@"+strconv.FormatUint(gen, 10), func() (any, error) {
		ctx, cancel := context.WithTimeout(loadCtx, s.loadTimeout)
		defer cancel()

		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.generation == gen {
			s.storeLocked(key, loaded)
		}
		s.mu.Unlock()
		return loaded, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		value, _ := res.Val.(V)
		return value, nil
	}
}

func (s *Store[V]) lookupLocked(key string) (V, bool, uint64) {
	var zero V
	e, ok := s.entries[key]
	if !ok {
		return zero, false, s.generation
	}
	if e.expired(s.now()) {
		delete(s.entries, key)
		return zero, false, s.generation
	}
	return e.value, true, s.generation
}

func (s *Store[V]) storeLocked(key string, value V) {
	e := entry[V]{value: value}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[key] = e
}
