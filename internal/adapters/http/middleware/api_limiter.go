package middleware

import (
	"net/http"

	"github.com/didip/tollbooth/v7"

	"github.com/JeanGrijp/ddos-shield/internal/core/domain"
	"github.com/JeanGrijp/ddos-shield/internal/observability"
)

type APILimiterOptions struct {
	TrustProxy bool
	// Exempt reports whether an IP skips the limiter.
	Exempt func(ip string) bool
	// OnLimitReached runs before the 429 is written.
	OnLimitReached func(r *http.Request)
	Stats          *observability.AdmissionStats
}

// NewAPILimiter caps each client to rule.Requests within rule.Window, answering
// 429 with an empty body once the allowance is spent.
func NewAPILimiter(rule domain.RateLimitRule, opts APILimiterOptions) func(http.Handler) http.Handler {
	perSecond := float64(rule.Requests) / rule.Window.Seconds()
	lmt := tollbooth.NewLimiter(perSecond, nil)
	lmt.SetBurst(rule.Requests)
	if opts.TrustProxy {
		lmt.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP", "RemoteAddr"})
	} else {
		lmt.SetIPLookups([]string{"RemoteAddr"})
	}
	lmt.SetMessage("")
	lmt.SetMessageContentType("text/plain; charset=utf-8")
	lmt.SetOnLimitReached(func(w http.ResponseWriter, r *http.Request) {
		if opts.Stats != nil {
			opts.Stats.IncRateLimited()
		}
		if opts.OnLimitReached != nil {
			opts.OnLimitReached(r)
		}
	})

	return func(next http.Handler) http.Handler {
		limited := tollbooth.LimitHandler(lmt, next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.Exempt != nil && opts.Exempt(extractIP(r, opts.TrustProxy)) {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}
