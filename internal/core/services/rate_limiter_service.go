package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/JeanGrijp/ddos-shield/internal/core/domain"
	"github.com/JeanGrijp/ddos-shield/internal/core/ports"
)

// Config agrega os limites utilizados pelo serviço de rate limiting.
type Config struct {
	Rule      domain.RateLimitRule
	KeyPrefix string
}

// RateLimiterService implementa o limite global por IP e User-Agent.
type RateLimiterService struct {
	storage ports.Storage
	state   *AdmissionState
	config  Config
}

var _ ports.AdmissionStage = (*RateLimiterService)(nil)

// NewRateLimiterService cria uma nova instância do serviço. O state pode ser nil
// quando o limite não deve alimentar a blacklist.
func NewRateLimiterService(storage ports.Storage, state *AdmissionState, cfg Config) (*RateLimiterService, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if cfg.Rule.Requests <= 0 || cfg.Rule.Window <= 0 {
		return nil, fmt.Errorf("rate limit rule must have positive values")
	}
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = "global"
	}

	return &RateLimiterService{storage: storage, state: state, config: cfg}, nil
}

// Allow avalia se a requisição pode prosseguir de acordo com a regra configurada.
func (s *RateLimiterService) Allow(ctx context.Context, req domain.RateLimitRequest) (domain.Decision, error) {
	ip := strings.TrimSpace(req.IP)
	if ip == "" {
		return domain.Decision{}, fmt.Errorf("ip address is required")
	}

	ua := strings.TrimSpace(req.UserAgent)
	if ua == "" {
		ua = domain.UnknownUserAgent
	}
	keys := buildKeys(s.config.KeyPrefix, ip+ua)
	rule := s.config.Rule

	currentCount, err := s.storage.Increment(ctx, keys.counterKey, rule.Window)
	if err != nil {
		return domain.Decision{}, err
	}

	if int(currentCount) > rule.Requests {
		decision := domain.Decision{Allowed: false, Identifier: keys.identifier, AppliedRule: rule, CurrentCount: currentCount}
		return decision, fmt.Errorf("%w: %d requests in %s", domain.ErrRateLimited, currentCount, rule.Window)
	}

	return domain.Decision{Allowed: true, Identifier: keys.identifier, AppliedRule: rule, CurrentCount: currentCount}, nil
}

func (s *RateLimiterService) Name() string { return s.config.KeyPrefix + "_rate_limit" }

// Evaluate applies Allow as a pipeline stage: a client over the limit is
// blacklisted and counted as a violation.
func (s *RateLimiterService) Evaluate(ctx context.Context, req domain.ClientRequest) (domain.Verdict, error) {
	if req.Whitelisted {
		return domain.Verdict{}, nil
	}

	_, err := s.Allow(ctx, domain.RateLimitRequest{IP: req.IP, UserAgent: req.UserAgent})
	if err != nil {
		if domain.IsRateLimitedError(err) && s.state != nil {
			s.state.Blacklist(req.IP)
			s.state.RecordViolation()
		}
		return domain.Verdict{}, err
	}
	return domain.Verdict{}, nil
}

type resolvedKeys struct {
	counterKey string
	identifier string
}

// buildKeys keeps the identifier case-exact; only the prefix is normalised.
func buildKeys(prefix, identifier string) resolvedKeys {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	identifier = strings.TrimSpace(identifier)
	return resolvedKeys{
		counterKey: fmt.Sprintf("ratelimit:%s:%s", prefix, identifier),
		identifier: identifier,
	}
}
