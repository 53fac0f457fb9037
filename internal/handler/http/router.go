package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Agamvashisht/fintrack/internal/service"
	"github.com/Agamvashisht/fintrack/pkg/health"
	"github.com/Agamvashisht/fintrack/pkg/middleware"
)

// RateLimitConfig holds per-IP rate limit parameters for the auth endpoints.
type RateLimitConfig struct {
	RPS   int
	Burst int
}

// NewRouter creates a chi router with all API routes registered.
func NewRouter(
	authService *service.AuthService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig CORSConfig,
	rateLimit RateLimitConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("fintrack"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(authService, logger)

	// Token validator bridging the middleware to the service's codec.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := authService.VerifyAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Public endpoints, rate limited per client IP.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(rateLimit.RPS, rateLimit.Burst, logger))

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
		})

		// Authenticated endpoints.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Get("/me", authHandler.Me)
		})
	})

	return r
}
