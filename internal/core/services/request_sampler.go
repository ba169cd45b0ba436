package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// RequestSampler counts requests and keeps a bounded per-interval history.
type RequestSampler struct {
	count    atomic.Int64
	interval time.Duration
	size     int

	mu      sync.RWMutex
	history []int64
}

func NewRequestSampler(size int, interval time.Duration) *RequestSampler {
	if size <= 0 {
		size = 30
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &RequestSampler{interval: interval, size: size, history: make([]int64, 0, size)}
}

func (s *RequestSampler) Inc() {
	s.count.Add(1)
}

// Tick moves the current count into the history, dropping the oldest sample
// once the history is full.
func (s *RequestSampler) Tick() {
	n := s.count.Swap(0)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, n)
	if len(s.history) > s.size {
		s.history = append(s.history[:0], s.history[len(s.history)-s.size:]...)
	}
}

// History returns the samples oldest first.
func (s *RequestSampler) History() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, len(s.history))
	copy(out, s.history)
	return out
}

func (s *RequestSampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick()
		}
	}
}
