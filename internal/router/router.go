// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"core-banking-service/internal/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func SetupRoutes(
	coreBankingHandler *handler.CoreBankingHandler,
	healthHandler *handler.HealthHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))

	// CORS; preflights fall through to the handler, which answers "ok"
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{"POST", "OPTIONS"},
		AllowedHeaders:     []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
		AllowCredentials:   false,
		MaxAge:             300,
		OptionsPassthrough: true,
	}))

	// Health and metrics
	r.Get("/healthz", healthHandler.HandleLiveness)
	r.Get("/readyz", healthHandler.HandleReadiness)
	r.Handle("/metrics", promhttp.Handler())

	// ============================================
	// CORE BANKING BRIDGE
	// ============================================
	// Same handler under the edge-function path and the versioned API path.
	for _, path := range []string{"/functions/v1/core-banking", "/api/v1/core-banking"} {
		r.Post(path, coreBankingHandler.HandleCoreBanking)
		r.Options(path, coreBankingHandler.HandlePreflight)
	}

	return r
}

// LoggerMiddleware logs HTTP requests
func LoggerMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()))
		})
	}
}
