package services

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yl2chen/cidranger"
)

type clientState struct {
	activeConnections int
	recentTimestamps  []time.Time
	botnetScore       int
	lastSeen          time.Time
}

// AdmissionState owns every piece of mutable admission data shared by the
// pipeline stages and the attack detector. Per-IP data lives under one mutex
// so Reset wipes it atomically.
type AdmissionState struct {
	mu        sync.Mutex
	clients   map[string]*clientState
	blacklist map[string]struct{}
	epoch     uint64

	whitelist   cidranger.Ranger
	violations  atomic.Int64
	underAttack atomic.Bool
}

// ClientSnapshot is a read-only copy of the state tracked for one IP.
type ClientSnapshot struct {
	ActiveConnections int
	RecentRequests    int
	BotnetScore       int
}

type StateSnapshot struct {
	TrackedClients int
	Blacklisted    int
	Violations     int64
	UnderAttack    bool
	Epoch          uint64
}

// NewAdmissionState builds the state with a static whitelist of IPs or CIDR ranges.
func NewAdmissionState(whitelist []string) (*AdmissionState, error) {
	ranger := cidranger.NewPCTrieRanger()
	for _, entry := range whitelist {
		network, err := parseNetwork(entry)
		if err != nil {
			return nil, err
		}
		if network == nil {
			continue
		}
		if err := ranger.Insert(cidranger.NewBasicRangerEntry(*network)); err != nil {
			return nil, fmt.Errorf("whitelist entry %q: %w", entry, err)
		}
	}

	return &AdmissionState{
		clients:   make(map[string]*clientState),
		blacklist: make(map[string]struct{}),
		whitelist: ranger,
	}, nil
}

func parseNetwork(entry string) (*net.IPNet, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return nil, nil
	}
	if ip := net.ParseIP(entry); ip != nil {
		bits := 128
		if v4 := ip.To4(); v4 != nil {
			bits = 32
			ip = v4
		}
		return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}, nil
	}
	_, network, err := net.ParseCIDR(entry)
	if err != nil {
		return nil, fmt.Errorf("invalid whitelist entry %q: %w", entry, err)
	}
	return network, nil
}

func (s *AdmissionState) Whitelisted(ip string) bool {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return false
	}
	ok, err := s.whitelist.Contains(parsed)
	return err == nil && ok
}

func (s *AdmissionState) Blacklisted(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blacklist[ip]
	return ok
}

func (s *AdmissionState) Blacklist(ip string) {
	s.mu.Lock()
	s.blacklist[ip] = struct{}{}
	s.mu.Unlock()
}

// RecordViolation bumps the global violation counter and returns the new value.
func (s *AdmissionState) RecordViolation() int64 {
	return s.violations.Add(1)
}

func (s *AdmissionState) Violations() int64 {
	return s.violations.Load()
}

func (s *AdmissionState) UnderAttack() bool {
	return s.underAttack.Load()
}

// SetUnderAttack stores the flag and returns the previous value.
func (s *AdmissionState) SetUnderAttack(v bool) bool {
	return s.underAttack.Swap(v)
}

// AcquireConnection counts one more active connection for ip unless it already
// holds max. The returned epoch must be handed back to ReleaseConnection.
func (s *AdmissionState) AcquireConnection(ip string, max int) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.client(ip)
	if c.activeConnections >= max {
		return s.epoch, false
	}
	c.activeConnections++
	return s.epoch, true
}

// ReleaseConnection undoes an AcquireConnection. Releases from an epoch that
// was wiped by Reset are ignored and the counter never goes below zero.
func (s *AdmissionState) ReleaseConnection(ip string, epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	c, ok := s.clients[ip]
	if !ok || c.activeConnections <= 0 {
		return
	}
	c.activeConnections--
}

// TrackBurst prunes the timestamps of ip to the given window and reports whether
// fewer than limit remain. On success now is appended and the history is capped
// at keep entries.
func (s *AdmissionState) TrackBurst(ip string, now time.Time, window time.Duration, limit, keep int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.client(ip)

	recent := c.recentTimestamps[:0]
	for _, ts := range c.recentTimestamps {
		if now.Sub(ts) < window {
			recent = append(recent, ts)
		}
	}
	c.recentTimestamps = recent
	if len(recent) >= limit {
		return false
	}

	c.recentTimestamps = append(c.recentTimestamps, now)
	if keep > 0 && len(c.recentTimestamps) > keep {
		c.recentTimestamps = c.recentTimestamps[len(c.recentTimestamps)-keep:]
	}
	return true
}

// ScoreGap updates the decaying botnet score of ip: a request closer than gap to
// the previous one adds a point, anything slower removes one.
func (s *AdmissionState) ScoreGap(ip string, now time.Time, gap time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.client(ip)

	switch {
	case c.lastSeen.IsZero():
	case now.Sub(c.lastSeen) < gap:
		c.botnetScore++
	case c.botnetScore > 0:
		c.botnetScore--
	}
	c.lastSeen = now
	return c.botnetScore
}

// Reset wipes the blacklist and every per-IP entry, zeroes the violation counter
// and returns the count it held.
func (s *AdmissionState) Reset() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = make(map[string]*clientState)
	s.blacklist = make(map[string]struct{})
	s.epoch++
	return s.violations.Swap(0)
}

func (s *AdmissionState) Client(ip string) (ClientSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[ip]
	if !ok {
		return ClientSnapshot{}, false
	}
	return ClientSnapshot{
		ActiveConnections: c.activeConnections,
		RecentRequests:    len(c.recentTimestamps),
		BotnetScore:       c.botnetScore,
	}, true
}

func (s *AdmissionState) Snapshot() StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StateSnapshot{
		TrackedClients: len(s.clients),
		Blacklisted:    len(s.blacklist),
		Violations:     s.violations.Load(),
		UnderAttack:    s.underAttack.Load(),
		Epoch:          s.epoch,
	}
}

func (s *AdmissionState) client(ip string) *clientState {
	c, ok := s.clients[ip]
	if !ok {
		c = &clientState{}
		s.clients[ip] = c
	}
	return c
}
