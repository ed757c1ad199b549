package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"healthmate/internal/domain"
)

var _ domain.KeyValueStore = (*KV)(nil)

type kvItem struct {
	value     string
	expiresAt time.Time
}

// KV is a key-value store with per-key expiry. Expired keys are dropped
// lazily on access and by Sweep.
type KV struct {
	mu    sync.Mutex
	items map[string]kvItem
	now   func() time.Time
}

// NewKV creates an empty KV.
func NewKV() *KV {
	return &KV{items: make(map[string]kvItem), now: time.Now}
}

// Put stores value under key for ttl. A non-positive ttl never expires.
func (s *KV) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := kvItem{value: value}
	if ttl > 0 {
		it.expiresAt = s.now().Add(ttl)
	}
	s.items[key] = it
	return nil
}

// Get returns the value under key if it exists and has not expired.
func (s *KV) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[key]
	if !ok {
		return "", false, nil
	}
	if !it.expiresAt.IsZero() && !s.now().Before(it.expiresAt) {
		delete(s.items, key)
		return "", false, nil
	}
	return it.value, true, nil
}

// Delete removes key.
func (s *KV) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Incr increments the counter under key. A missing or expired key starts
// a new counter that lives for ttl.
func (s *KV) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	it, ok := s.items[key]
	if ok && !it.expiresAt.IsZero() && !now.Before(it.expiresAt) {
		ok = false
	}
	var n int64
	if ok {
		var err error
		if n, err = strconv.ParseInt(it.value, 10, 64); err != nil {
			return 0, err
		}
	} else {
		it = kvItem{}
		if ttl > 0 {
			it.expiresAt = now.Add(ttl)
		}
	}
	n++
	it.value = strconv.FormatInt(n, 10)
	s.items[key] = it
	return n, nil
}

// Sweep drops every expired key and reports how many were removed.
func (s *KV) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for k, it := range s.items {
		if !it.expiresAt.IsZero() && !now.Before(it.expiresAt) {
			delete(s.items, k)
			n++
		}
	}
	return n
}
