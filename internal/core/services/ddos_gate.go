package services

import (
	"context"
	"fmt"

	"github.com/JeanGrijp/ddos-shield/internal/core/domain"
	"github.com/JeanGrijp/ddos-shield/internal/core/ports"
)

// DDoSGate turns every request away while the service is in attack mode.
type DDoSGate struct {
	state *AdmissionState
}

var _ ports.AdmissionStage = (*DDoSGate)(nil)

func NewDDoSGate(state *AdmissionState) *DDoSGate {
	return &DDoSGate{state: state}
}

func (g *DDoSGate) Name() string { return "ddos_gate" }

func (g *DDoSGate) Evaluate(_ context.Context, _ domain.ClientRequest) (domain.Verdict, error) {
	if g.state.UnderAttack() {
		return domain.Verdict{}, fmt.Errorf("%w: redirecting traffic", domain.ErrRedirected)
	}
	return domain.Verdict{}, nil
}
