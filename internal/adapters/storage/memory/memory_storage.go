// Package memory disponibiliza a implementação do storage em memória do processo.
package memory

import (
	"context"
	"sync"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"

	"github.com/JeanGrijp/ddos-shield/internal/core/ports"
)

const defaultMaxKeys = 100_000

type counter struct {
	hits    int64
	expires time.Time
}

type Storage struct {
	mu       sync.Mutex
	counters cache.Cache[string, *counter]
	nowFn    func() time.Time
}

var _ ports.Storage = (*Storage)(nil)

type Config struct {
	// MaxKeys bounds the number of live counters; 0 uses the default.
	MaxKeys int
}

func New(cfg Config) *Storage {
	maxKeys := cfg.MaxKeys
	if maxKeys <= 0 {
		maxKeys = defaultMaxKeys
	}
	return &Storage{
		counters: cache.NewCache[string, *counter]().WithMaxKeys(maxKeys),
		nowFn:    time.Now,
	}
}

func (s *Storage) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	now := s.nowFn()

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters.Get(key)
	if !ok || !now.Before(c.expires) {
		c = &counter{expires: now.Add(window)}
		s.counters.Set(key, c, window)
	}
	c.hits++
	return c.hits, nil
}

// Len reports the number of tracked keys, expired ones included until evicted.
func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters.Len()
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.Purge()
	return nil
}
