package rest

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/barkshad/fuliza/pkg/auth"
)

// Policy is the HTTP auth policy: probes, metrics and the webhook (which
// carries its own secret) are public; export needs the admin role.
func Policy() auth.Policy {
	return auth.Policy{
		Public: []string{"/healthz", "/readyz", "/metrics", "POST /v1/payments/callback"},
		Roles: map[string][]string{
			"POST /v1/admin/export": {auth.RoleAdmin},
		},
	}
}

// NewRouter assembles the HTTP surface. metrics may be nil.
func NewRouter(health *HealthHandler, boost *BoostHandler, metrics http.Handler, jwtService *auth.JWTService, limiter *rate.Limiter, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	health.RegisterRoutes(mux)
	boost.RegisterRoutes(mux)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return chain(mux,
		LoggingMiddleware(logger),
		RateLimitMiddleware(limiter),
		auth.HTTPMiddleware(jwtService, Policy()),
	)
}
