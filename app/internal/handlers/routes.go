package handlers

import (
	"net/http"

	"storemonitor/app/internal/auth"
	"storemonitor/app/internal/metrics"
	"storemonitor/app/internal/ratelimit"
	"storemonitor/app/internal/security"
	"storemonitor/app/internal/stats"
)

// SetupRoutes configures all HTTP routes and middlewares. A nil limiter
// disables rate limiting; a disabled KeyAuth leaves the API open.
func SetupRoutes(rep *stats.Reporter, keys *auth.KeyAuth, limiter *ratelimit.Limiter) http.Handler {
	limit := func(h http.HandlerFunc) http.Handler {
		if limiter == nil {
			return h
		}
		return limiter.Middleware(security.ClientIP, h)
	}

	mux := http.NewServeMux()

	// Report API (key protected, rate limited)
	mux.Handle("POST /trigger_report", limit(keys.RequireKey(HandleTriggerReport(rep))))
	mux.Handle("GET /get_report", GzipMiddleware(limit(keys.RequireKey(HandleGetReport(rep)))))
	mux.Handle("GET /api/stores/{store_id}/report", GzipMiddleware(limit(keys.RequireKey(HandleStoreReport(rep)))))

	// Operations
	mux.HandleFunc("GET /api/logs", keys.RequireKey(HandleGetLogs()))
	mux.HandleFunc("GET /api/logs/stats", keys.RequireKey(HandleGetLogStats()))
	mux.HandleFunc("GET /healthz", HandleHealth(rep))
	mux.Handle("GET /metrics", metrics.Handler())

	return mux
}
