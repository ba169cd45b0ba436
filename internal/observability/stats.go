package observability

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

type AdmissionStats struct {
	start time.Time

	admitted       atomic.Int64
	delayed        atomic.Int64
	redirected     atomic.Int64
	forbidden      atomic.Int64
	rateLimited    atomic.Int64
	internalErrors atomic.Int64
}

// Gauges are point-in-time values read from the admission state.
type Gauges struct {
	TrackedClients int
	Blacklisted    int
	Violations     int64
	UnderAttack    bool
}

func NewAdmissionStats() *AdmissionStats {
	return &AdmissionStats{start: time.Now()}
}

func (s *AdmissionStats) IncAdmitted()      { s.admitted.Add(1) }
func (s *AdmissionStats) IncDelayed()       { s.delayed.Add(1) }
func (s *AdmissionStats) IncRedirected()    { s.redirected.Add(1) }
func (s *AdmissionStats) IncForbidden()     { s.forbidden.Add(1) }
func (s *AdmissionStats) IncRateLimited()   { s.rateLimited.Add(1) }
func (s *AdmissionStats) IncInternalError() { s.internalErrors.Add(1) }

func (s *AdmissionStats) Admitted() int64    { return s.admitted.Load() }
func (s *AdmissionStats) Forbidden() int64   { return s.forbidden.Load() }
func (s *AdmissionStats) RateLimited() int64 { return s.rateLimited.Load() }
func (s *AdmissionStats) Redirected() int64  { return s.redirected.Load() }

func (s *AdmissionStats) Prometheus(g Gauges) string {
	var b strings.Builder
	write := func(name string, v int64) {
		fmt.Fprintf(&b, "%s %d\n", name, v)
	}
	underAttack := int64(0)
	if g.UnderAttack {
		underAttack = 1
	}

	write("shield_uptime_seconds", int64(time.Since(s.start).Seconds()))
	write("shield_requests_admitted_total", s.admitted.Load())
	write("shield_requests_delayed_total", s.delayed.Load())
	write("shield_requests_redirected_total", s.redirected.Load())
	write("shield_requests_forbidden_total", s.forbidden.Load())
	write("shield_requests_rate_limited_total", s.rateLimited.Load())
	write("shield_requests_internal_error_total", s.internalErrors.Load())

	write("shield_tracked_clients", int64(g.TrackedClients))
	write("shield_blacklisted_clients", int64(g.Blacklisted))
	write("shield_cycle_violations", g.Violations)
	write("shield_under_attack", underAttack)
	return b.String()
}
