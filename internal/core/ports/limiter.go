// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"

	"github.com/JeanGrijp/ddos-shield/internal/core/domain"
)

// AdmissionStage is one check of the admission pipeline. Rejections are returned
// as errors wrapping the domain sentinels.
type AdmissionStage interface {
	Name() string
	Evaluate(ctx context.Context, req domain.ClientRequest) (domain.Verdict, error)
}
