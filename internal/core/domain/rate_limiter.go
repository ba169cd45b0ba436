// Package domain concentra entidades e estruturas centrais do controle de admissão.
package domain

import "time"

type RateLimitRule struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type RateLimitRequest struct {
	IP        string
	UserAgent string
}

type Decision struct {
	Allowed      bool
	Identifier   string
	AppliedRule  RateLimitRule
	CurrentCount int64
}

// SlowDownRule descreve o atraso progressivo aplicado depois de DelayAfter requisições.
type SlowDownRule struct {
	Window     time.Duration `yaml:"window"`
	DelayAfter int           `yaml:"delay_after"`
	DelayStep  time.Duration `yaml:"delay_step"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

// DelayFor returns the delay for the hit-th request inside the current window.
func (r SlowDownRule) DelayFor(hit int64) time.Duration {
	over := hit - int64(r.DelayAfter)
	if over <= 0 || r.DelayStep <= 0 {
		return 0
	}
	delay := time.Duration(over) * r.DelayStep
	if r.MaxDelay > 0 && delay > r.MaxDelay {
		return r.MaxDelay
	}
	return delay
}
