// Package middleware disponibiliza middlewares HTTP específicos da aplicação.
package middleware

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/JeanGrijp/ddos-shield/internal/core/domain"
	"github.com/JeanGrijp/ddos-shield/internal/observability"
)

type Admitter interface {
	Admit(ctx context.Context, req domain.ClientRequest) (domain.Verdict, error)
}

type AdmissionOptions struct {
	RedirectURL string
	TrustProxy  bool
	Stats       *observability.AdmissionStats
	Logger      *zap.Logger
}

// NewAdmissionMiddleware runs every request through the admitter and turns its
// rejections into bare status codes.
func NewAdmissionMiddleware(admitter Admitter, opts AdmissionOptions) func(http.Handler) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Stats == nil {
		opts.Stats = observability.NewAdmissionStats()
	}
	rejectLog := &rate.Sometimes{Interval: time.Second}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if admitter == nil {
				next.ServeHTTP(w, r)
				return
			}

			req := clientRequestFrom(r, opts.TrustProxy)
			verdict, err := admitter.Admit(r.Context(), req)
			if err != nil {
				if domain.IsRejection(err) {
					rejectLog.Do(func() {
						opts.Logger.Info("request rejected",
							zap.String("ip", req.IP), zap.String("path", req.Path), zap.Error(err))
					})
				} else {
					opts.Logger.Error("admission failed",
						zap.String("ip", req.IP), zap.String("path", req.Path), zap.Error(err))
				}
				writeRejection(w, err, opts)
				return
			}

			if verdict.Delay > 0 {
				opts.Stats.IncDelayed()
				if !wait(r.Context(), verdict.Delay) {
					return
				}
			}

			opts.Stats.IncAdmitted()
			next.ServeHTTP(w, r)
		})
	}
}

func writeRejection(w http.ResponseWriter, err error, opts AdmissionOptions) {
	switch {
	case domain.IsRedirectedError(err):
		opts.Stats.IncRedirected()
		w.Header().Set("Location", opts.RedirectURL)
		w.WriteHeader(http.StatusFound)
	case domain.IsForbiddenError(err):
		opts.Stats.IncForbidden()
		w.WriteHeader(http.StatusForbidden)
	case domain.IsRateLimitedError(err):
		opts.Stats.IncRateLimited()
		w.WriteHeader(http.StatusTooManyRequests)
	default:
		opts.Stats.IncInternalError()
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// wait blocks for d unless ctx ends first.
func wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
