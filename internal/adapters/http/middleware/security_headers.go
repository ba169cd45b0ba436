package middleware

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/secure"
)

var secureHeaders = secure.New(secure.Options{
	ContentSecurityPolicy:         "default-src 'self'; script-src 'self'",
	STSSeconds:                    31536000,
	STSIncludeSubdomains:          true,
	ForceSTSHeader:                true,
	ContentTypeNosniff:            true,
	CustomFrameOptionsValue:       "SAMEORIGIN",
	ReferrerPolicy:                "no-referrer",
	XDNSPrefetchControl:           "off",
	XPermittedCrossDomainPolicies: "none",
	CrossOriginOpenerPolicy:       "same-origin",
	CrossOriginResourcePolicy:     "same-origin",
})

// SecurityHeaders sets the hardening headers on every response. The two headers
// secure has no option for are added through chi.
func SecurityHeaders(next http.Handler) http.Handler {
	extra := chimiddleware.SetHeader("X-Download-Options", "noopen")(
		chimiddleware.SetHeader("Origin-Agent-Cluster", "?1")(next),
	)
	return secureHeaders.Handler(extra)
}
