package services

import (
	"context"
	"fmt"

	"github.com/JeanGrijp/ddos-shield/internal/core/domain"
	"github.com/JeanGrijp/ddos-shield/internal/core/ports"
)

// AdmissionPipeline runs its stages in order and stops at the first rejection.
type AdmissionPipeline struct {
	state  *AdmissionState
	stages []ports.AdmissionStage
}

func NewAdmissionPipeline(state *AdmissionState, stages ...ports.AdmissionStage) *AdmissionPipeline {
	return &AdmissionPipeline{state: state, stages: stages}
}

// NewDefaultPipeline wires the standard chain: DDoS gate, security check, botnet
// detector, global rate limiter and speed limiter.
func NewDefaultPipeline(state *AdmissionState, storage ports.Storage, rules domain.AdmissionRules, scheduler ports.Scheduler) (*AdmissionPipeline, error) {
	global, err := NewRateLimiterService(storage, state, Config{Rule: rules.GlobalLimit, KeyPrefix: "global"})
	if err != nil {
		return nil, err
	}
	speed, err := NewSpeedLimiter(storage, rules.SlowDown)
	if err != nil {
		return nil, err
	}

	return NewAdmissionPipeline(state,
		NewDDoSGate(state),
		NewSecurityCheck(state, rules, scheduler),
		NewBotnetDetector(state, rules),
		global,
		speed,
	), nil
}

// Admit evaluates req. The returned verdict carries the accumulated delay of the
// stages that admitted it.
func (p *AdmissionPipeline) Admit(ctx context.Context, req domain.ClientRequest) (domain.Verdict, error) {
	req.Whitelisted = p.state.Whitelisted(req.IP)

	var verdict domain.Verdict
	for _, stage := range p.stages {
		v, err := stage.Evaluate(ctx, req)
		if err != nil {
			return domain.Verdict{}, fmt.Errorf("%s: %w", stage.Name(), err)
		}
		verdict.Delay += v.Delay
	}
	return verdict, nil
}

func (p *AdmissionPipeline) State() *AdmissionState {
	return p.state
}
