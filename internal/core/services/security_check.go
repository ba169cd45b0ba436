package services

import (
	"context"
	"fmt"
	"time"

	"github.com/JeanGrijp/ddos-shield/internal/core/domain"
	"github.com/JeanGrijp/ddos-shield/internal/core/ports"
)

// SecurityCheck enforces the blacklist, the per-IP concurrent connection cap and
// the per-second burst limit.
type SecurityCheck struct {
	state     *AdmissionState
	rules     domain.AdmissionRules
	scheduler ports.Scheduler
	nowFn     func() time.Time
}

var _ ports.AdmissionStage = (*SecurityCheck)(nil)

func NewSecurityCheck(state *AdmissionState, rules domain.AdmissionRules, scheduler ports.Scheduler) *SecurityCheck {
	if scheduler == nil {
		scheduler = TimerScheduler{}
	}
	return &SecurityCheck{
		state:     state,
		rules:     rules,
		scheduler: scheduler,
		nowFn:     time.Now,
	}
}

func (c *SecurityCheck) Name() string { return "security_check" }

func (c *SecurityCheck) Evaluate(_ context.Context, req domain.ClientRequest) (domain.Verdict, error) {
	if req.Whitelisted {
		return domain.Verdict{}, nil
	}
	ip := req.IP

	if c.state.Blacklisted(ip) {
		c.state.RecordViolation()
		return domain.Verdict{}, fmt.Errorf("%w: %s is blacklisted", domain.ErrForbidden, ip)
	}

	epoch, ok := c.state.AcquireConnection(ip, c.rules.MaxConnectionsPerIP)
	if !ok {
		c.reject(ip)
		return domain.Verdict{}, fmt.Errorf("%w: %s holds too many connections", domain.ErrForbidden, ip)
	}
	c.scheduler.After(c.rules.ConnectionHold, func() {
		c.state.ReleaseConnection(ip, epoch)
	})

	if !c.state.TrackBurst(ip, c.nowFn(), c.rules.BurstWindow, c.rules.MaxRequestsPerSecond, c.rules.TimestampHistory) {
		c.reject(ip)
		return domain.Verdict{}, fmt.Errorf("%w: %s sent a burst", domain.ErrRateLimited, ip)
	}

	return domain.Verdict{}, nil
}

func (c *SecurityCheck) reject(ip string) {
	c.state.Blacklist(ip)
	c.state.RecordViolation()
}
