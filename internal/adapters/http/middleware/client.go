package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/JeanGrijp/ddos-shield/internal/core/domain"
)

// extractIP resolves the client address. Proxy headers are only honoured when
// the service runs behind a trusted reverse proxy.
func extractIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		xForwardedFor := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
		if xForwardedFor != "" {
			parts := strings.Split(xForwardedFor, ",")
			if len(parts) > 0 {
				return strings.TrimSpace(parts[0])
			}
		}

		xRealIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
		if xRealIP != "" {
			return xRealIP
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}

	return host
}

func clientRequestFrom(r *http.Request, trustProxy bool) domain.ClientRequest {
	return domain.ClientRequest{
		IP:           extractIP(r, trustProxy),
		UserAgent:    r.Header.Get("User-Agent"),
		ForwardedFor: r.Header.Get("X-Forwarded-For"),
		Path:         r.URL.Path,
	}
}
