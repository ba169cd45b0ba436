package middleware

import "net/http"

type RequestCounter interface {
	Inc()
}

// CountRequests counts every request before any other check runs.
func CountRequests(counter RequestCounter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			counter.Inc()
			next.ServeHTTP(w, r)
		})
	}
}
