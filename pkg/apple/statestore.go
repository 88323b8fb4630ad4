package apple

import (
	"context"
	"errors"
	"sync"
	"time"

	"applesso/pkg/cache"
)

var (
	ErrStateNotFound = errors.New("state not found")
	ErrStateExpired  = errors.New("state expired")
)

// StateStore holds anti-forgery state tokens between the redirect and
// the callback. States are one-time use: Consume removes the token.
type StateStore interface {
	Save(ctx context.Context, state string, ttl time.Duration) error
	Consume(ctx context.Context, state string) error
	Cleanup()
}

// InMemoryStateStore implements StateStore for single-instance
// deployments. Expired entries are evicted by a background routine.
type InMemoryStateStore struct {
	mu   sync.Mutex
	data map[string]time.Time
	done chan struct{}
	once sync.Once
}

func NewInMemoryStateStore() *InMemoryStateStore {
	s := &InMemoryStateStore{
		data: make(map[string]time.Time),
		done: make(chan struct{}),
	}
	go s.cleanupRoutine()
	return s
}

func (s *InMemoryStateStore) Save(_ context.Context, state string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[state] = time.Now().Add(ttl)
	return nil
}

func (s *InMemoryStateStore) Consume(_ context.Context, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, exists := s.data[state]
	if !exists {
		return ErrStateNotFound
	}
	delete(s.data, state)

	if time.Now().After(expiresAt) {
		return ErrStateExpired
	}
	return nil
}

func (s *InMemoryStateStore) Cleanup() {
	s.once.Do(func() {
		close(s.done)
	})
}

func (s *InMemoryStateStore) cleanupRoutine() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.done:
			return
		}
	}
}

func (s *InMemoryStateStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for state, expiresAt := range s.data {
		if now.After(expiresAt) {
			delete(s.data, state)
		}
	}
}

const stateKeyPrefix = "apple:state:"

// CacheStateStore implements StateStore on a shared cache so multiple
// instances can serve the redirect and the callback. Expiry is handled
// by the cache TTL.
type CacheStateStore struct {
	cache cache.Cache
}

func NewCacheStateStore(c cache.Cache) *CacheStateStore {
	return &CacheStateStore{cache: c}
}

func (s *CacheStateStore) Save(ctx context.Context, state string, ttl time.Duration) error {
	return s.cache.Set(ctx, stateKeyPrefix+state, "1", ttl)
}

func (s *CacheStateStore) Consume(ctx context.Context, state string) error {
	_, err := s.cache.GetDel(ctx, stateKeyPrefix+state)
	if errors.Is(err, cache.ErrNotFound) {
		return ErrStateNotFound
	}
	return err
}

func (s *CacheStateStore) Cleanup() {}
