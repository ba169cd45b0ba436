package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/JeanGrijp/ddos-shield/internal/core/domain"
	"github.com/JeanGrijp/ddos-shield/internal/core/ports"
)

// SpeedLimiter never rejects; it asks the caller to hold requests back once an
// IP goes past the free allowance of its window.
type SpeedLimiter struct {
	storage ports.Storage
	rule    domain.SlowDownRule
}

var _ ports.AdmissionStage = (*SpeedLimiter)(nil)

func NewSpeedLimiter(storage ports.Storage, rule domain.SlowDownRule) (*SpeedLimiter, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if rule.Window <= 0 {
		return nil, fmt.Errorf("slow down window must be positive")
	}
	return &SpeedLimiter{storage: storage, rule: rule}, nil
}

func (l *SpeedLimiter) Name() string { return "speed_limiter" }

func (l *SpeedLimiter) Evaluate(ctx context.Context, req domain.ClientRequest) (domain.Verdict, error) {
	if req.Whitelisted {
		return domain.Verdict{}, nil
	}
	key := "slowdown:ip:" + strings.ToLower(strings.TrimSpace(req.IP))
	hit, err := l.storage.Increment(ctx, key, l.rule.Window)
	if err != nil {
		return domain.Verdict{}, err
	}
	return domain.Verdict{Delay: l.rule.DelayFor(hit)}, nil
}
