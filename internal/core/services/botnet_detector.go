package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/JeanGrijp/ddos-shield/internal/core/domain"
	"github.com/JeanGrijp/ddos-shield/internal/core/ports"
)

var botUserAgent = regexp.MustCompile(`(?i)bot|crawl|spider`)

// BotnetDetector flags machine-like traffic: requests fired faster than the
// configured gap, long proxy chains and crawler user agents.
type BotnetDetector struct {
	state *AdmissionState
	rules domain.AdmissionRules
	nowFn func() time.Time
}

var _ ports.AdmissionStage = (*BotnetDetector)(nil)

func NewBotnetDetector(state *AdmissionState, rules domain.AdmissionRules) *BotnetDetector {
	return &BotnetDetector{state: state, rules: rules, nowFn: time.Now}
}

func (d *BotnetDetector) Name() string { return "botnet_detector" }

func (d *BotnetDetector) Evaluate(_ context.Context, req domain.ClientRequest) (domain.Verdict, error) {
	if req.Whitelisted {
		return domain.Verdict{}, nil
	}

	score := d.state.ScoreGap(req.IP, d.nowFn(), d.rules.BotnetGap)
	if score >= d.rules.MaxBotnetViolations {
		d.state.Blacklist(req.IP)
		d.state.RecordViolation()
		return domain.Verdict{}, fmt.Errorf("%w: %s fires requests too fast", domain.ErrForbidden, req.IP)
	}

	if hops := req.ForwardedHops(); hops > d.rules.MaxForwardedHops {
		d.state.RecordViolation()
		return domain.Verdict{}, fmt.Errorf("%w: %d forwarded hops", domain.ErrForbidden, hops)
	}

	ua := strings.TrimSpace(req.UserAgent)
	if ua == "" || botUserAgent.MatchString(ua) {
		d.state.RecordViolation()
		return domain.Verdict{}, fmt.Errorf("%w: automated user agent %q", domain.ErrForbidden, ua)
	}

	return domain.Verdict{}, nil
}
