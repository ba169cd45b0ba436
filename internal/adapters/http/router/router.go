// Package router monta as rotas dos servidores simples e protegido.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	httpHandlers "github.com/JeanGrijp/ddos-shield/internal/adapters/http/handlers"
	httpMiddleware "github.com/JeanGrijp/ddos-shield/internal/adapters/http/middleware"
	"github.com/JeanGrijp/ddos-shield/internal/core/domain"
	"github.com/JeanGrijp/ddos-shield/internal/core/services"
	"github.com/JeanGrijp/ddos-shield/internal/observability"
)

type PlainDeps struct {
	Sampler *services.RequestSampler
	Logger  *zap.Logger
}

// NewPlain builds the unprotected counter server.
func NewPlain(deps PlainDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(httpMiddleware.Recoverer(logger))
	r.Use(allowAllOrigins())
	r.Use(httpMiddleware.CountRequests(deps.Sampler))

	r.Get("/", httpHandlers.StatusHandler)
	r.Get("/api/requests", httpHandlers.NewRequestsHandler(deps.Sampler))
	return r
}

type ShieldDeps struct {
	Sampler    *services.RequestSampler
	Pipeline   *services.AdmissionPipeline
	Rules      domain.AdmissionRules
	Stats      *observability.AdmissionStats
	Logger     *zap.Logger
	TrustProxy bool
}

// NewShield builds the protected server: every route sits behind the admission
// pipeline and /api/requests carries its own limiter on top.
func NewShield(deps ShieldDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stats := deps.Stats
	if stats == nil {
		stats = observability.NewAdmissionStats()
	}
	state := deps.Pipeline.State()

	r := chi.NewRouter()
	r.Use(httpMiddleware.Recoverer(logger))
	r.Use(allowAllOrigins())
	r.Use(httpMiddleware.AccessLog(logger, deps.TrustProxy))
	r.Use(httpMiddleware.SecurityHeaders)
	r.Use(httpMiddleware.CountRequests(deps.Sampler))
	r.Use(httpMiddleware.NewAdmissionMiddleware(deps.Pipeline, httpMiddleware.AdmissionOptions{
		RedirectURL: deps.Rules.RedirectURL,
		TrustProxy:  deps.TrustProxy,
		Stats:       stats,
		Logger:      logger,
	}))

	apiLimiter := httpMiddleware.NewAPILimiter(deps.Rules.APILimit, httpMiddleware.APILimiterOptions{
		TrustProxy: deps.TrustProxy,
		Exempt:     state.Whitelisted,
		OnLimitReached: func(*http.Request) {
			state.RecordViolation()
		},
		Stats: stats,
	})

	r.Get("/", httpHandlers.StatusHandler)
	r.With(apiLimiter).Get("/api/requests", httpHandlers.NewRequestsHandler(deps.Sampler))
	r.Get("/metrics", httpHandlers.NewMetricsHandler(stats, func() observability.Gauges {
		snap := state.Snapshot()
		return observability.Gauges{
			TrackedClients: snap.TrackedClients,
			Blacklisted:    snap.Blacklisted,
			Violations:     snap.Violations,
			UnderAttack:    snap.UnderAttack,
		}
	}))
	return r
}

func allowAllOrigins() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
}
