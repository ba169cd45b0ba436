package domain

import (
	"strings"
	"time"
)

const UnknownUserAgent = "unknown"

// ClientRequest carries what the admission stages need to know about an inbound request.
type ClientRequest struct {
	IP           string
	UserAgent    string
	ForwardedFor string
	Path         string
	Whitelisted  bool
}

// ForwardedHops counts the entries listed in X-Forwarded-For.
func (r ClientRequest) ForwardedHops() int {
	if strings.TrimSpace(r.ForwardedFor) == "" {
		return 0
	}
	return len(strings.Split(r.ForwardedFor, ","))
}

// Verdict is the outcome of an admitted request. A rejected request yields an error instead.
type Verdict struct {
	Delay time.Duration
}

type AttackMode int

const (
	ModeNormal AttackMode = iota
	ModeUnderAttack
)

func (m AttackMode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeUnderAttack:
		return "under_attack"
	default:
		return "unknown"
	}
}

// AdmissionRules agrupa todos os limites usados pelo pipeline e pelo detector de ataques.
type AdmissionRules struct {
	MaxConnectionsPerIP  int           `yaml:"max_connections_per_ip"`
	ConnectionHold       time.Duration `yaml:"connection_hold"`
	MaxRequestsPerSecond int           `yaml:"max_requests_per_second"`
	BurstWindow          time.Duration `yaml:"burst_window"`
	TimestampHistory     int           `yaml:"timestamp_history"`

	BotnetGap           time.Duration `yaml:"botnet_gap"`
	MaxBotnetViolations int           `yaml:"max_botnet_violations"`
	MaxForwardedHops    int           `yaml:"max_forwarded_hops"`

	GlobalLimit RateLimitRule `yaml:"global_limit"`
	APILimit    RateLimitRule `yaml:"api_limit"`
	SlowDown    SlowDownRule  `yaml:"slow_down"`

	DDoSThreshold     int64         `yaml:"ddos_threshold"`
	DetectionInterval time.Duration `yaml:"detection_interval"`
	SampleInterval    time.Duration `yaml:"sample_interval"`
	HistorySize       int           `yaml:"history_size"`

	RedirectURL string   `yaml:"redirect_url"`
	Whitelist   []string `yaml:"whitelist"`
}

func DefaultAdmissionRules() AdmissionRules {
	return AdmissionRules{
		MaxConnectionsPerIP:  6,
		ConnectionHold:       20 * time.Second,
		MaxRequestsPerSecond: 4,
		BurstWindow:          time.Second,
		TimestampHistory:     20,

		BotnetGap:           40 * time.Millisecond,
		MaxBotnetViolations: 4,
		MaxForwardedHops:    2,

		GlobalLimit: RateLimitRule{Requests: 20, Window: 10 * time.Second},
		APILimit:    RateLimitRule{Requests: 10, Window: 12 * time.Second},
		SlowDown: SlowDownRule{
			Window:     12 * time.Second,
			DelayAfter: 6,
			DelayStep:  time.Second,
			MaxDelay:   10 * time.Second,
		},

		DDoSThreshold:     20000,
		DetectionInterval: 10 * time.Second,
		SampleInterval:    time.Second,
		HistorySize:       30,

		RedirectURL: "https://google.com",
		Whitelist:   []string{"127.0.0.1"},
	}
}
