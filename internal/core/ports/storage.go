// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"
	"time"
)

// Storage keeps fixed-window hit counters. The window starts on the first
// increment of a key and the counter disappears when it elapses.
type Storage interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}
