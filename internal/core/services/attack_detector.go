package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JeanGrijp/ddos-shield/internal/core/domain"
)

// AttackDetector periodically compares the violations of the last cycle with the
// threshold and flips attack mode accordingly. Every tick wipes all per-IP state.
type AttackDetector struct {
	state     *AdmissionState
	threshold int64
	interval  time.Duration
	logger    *zap.Logger
}

func NewAttackDetector(state *AdmissionState, threshold int64, interval time.Duration, logger *zap.Logger) *AttackDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &AttackDetector{state: state, threshold: threshold, interval: interval, logger: logger}
}

func (d *AttackDetector) Tick() domain.AttackMode {
	violations := d.state.Reset()
	underAttack := violations >= d.threshold
	wasUnderAttack := d.state.SetUnderAttack(underAttack)

	switch {
	case underAttack && !wasUnderAttack:
		d.logger.Warn("ddos attack detected, redirecting all traffic",
			zap.Int64("violations", violations),
			zap.Int64("threshold", d.threshold))
	case !underAttack && wasUnderAttack:
		d.logger.Info("attack mode lifted", zap.Int64("violations", violations))
	default:
		d.logger.Debug("detection cycle", zap.Int64("violations", violations), zap.Bool("under_attack", underAttack))
	}

	if underAttack {
		return domain.ModeUnderAttack
	}
	return domain.ModeNormal
}

// Run ticks until ctx is cancelled.
func (d *AttackDetector) Run(ctx context.Context) error {
	d.logger.Info("starting attack detector", zap.Duration("interval", d.interval), zap.Int64("threshold", d.threshold))
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("stopping attack detector")
			return nil
		case <-ticker.C:
			d.Tick()
		}
	}
}
