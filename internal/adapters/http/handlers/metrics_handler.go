package handlers

import (
	"net/http"

	"github.com/JeanGrijp/ddos-shield/internal/observability"
)

// NewMetricsHandler exposes the admission counters in Prometheus text format.
func NewMetricsHandler(stats *observability.AdmissionStats, gauges func() observability.Gauges) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = w.Write([]byte(stats.Prometheus(gauges())))
	}
}
