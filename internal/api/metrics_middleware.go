package api

import (
	"net/http"
	"strings"
	"time"

	"example.com/fleetdocs/internal/metrics"
)

// MetricsMiddleware records per-request metrics. The metrics and health
// endpoints themselves are excluded, so scraping does not inflate the
// request counters it reads.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/metrics") || strings.HasSuffix(r.URL.Path, "/health") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()

		// Create a response wrapper to capture the status code
		wrapper := &responseWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// Call the next handler
		next.ServeHTTP(wrapper, r)

		// Record metrics
		duration := time.Since(start)
		collector := metrics.GetMetricsCollector()
		collector.RecordHTTPRequest(r.URL.Path, wrapper.statusCode, duration)
	})
}
