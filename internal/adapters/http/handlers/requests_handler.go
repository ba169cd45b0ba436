package handlers

import (
	"encoding/json"
	"net/http"
)

type HistorySource interface {
	History() []int64
}

// NewRequestsHandler serves the requests-per-second history as a JSON array,
// oldest sample first.
func NewRequestsHandler(source HistorySource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		history := source.History()
		if history == nil {
			history = []int64{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(history)
	}
}
