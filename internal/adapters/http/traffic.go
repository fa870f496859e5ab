package httpadapter

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// rpsGateMiddleware caps aggregate request throughput for the whole server.
// Per-client windows are enforced separately inside the chat handler.
func (rt *Router) rpsGateMiddleware(next http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rt.opts.RateLimitRPS), rt.opts.RateLimitBurst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			if rt.metrics != nil {
				rt.metrics.ObserveRateLimitDenied(rt.opts.ServiceName, "rps")
			}
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// backpressureMiddleware bounds in-flight requests. A request waits at most
// queueTimeout for a slot before the server sheds it with 503.
func backpressureMiddleware(next http.Handler, maxInFlight int, queueTimeout time.Duration) http.Handler {
	slots := make(chan struct{}, maxInFlight)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := time.NewTimer(queueTimeout)
		defer timer.Stop()

		select {
		case slots <- struct{}{}:
			defer func() { <-slots }()
			next.ServeHTTP(w, r)
		case <-timer.C:
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "server overloaded, try again later"})
		case <-r.Context().Done():
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "request canceled while queued"})
		}
	})
}
