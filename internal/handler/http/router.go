package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	AllowedOrigins []string
	LogLevel       slog.Level
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig, logger *slog.Logger, JWTService jwt.Service, reportHandler ReportHandler) *chi.Mux {
	r := chi.NewRouter()

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.RequestID)

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))
	r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)
			r.Use(middleware.RequireReportAccess)

			r.Get("/employees", reportHandler.ListEmployees)
			r.Get("/dashboard/summary", reportHandler.GetDashboardSummary)
			r.Get("/mapping", reportHandler.GetMappingState)

			r.Route("/reports", func(r chi.Router) {
				r.Get("/daily", reportHandler.GetDailyReport)
				r.Get("/monthly", reportHandler.GetMonthlyReport)
				r.Get("/yearly", reportHandler.GetYearlyReport)
			})
		})
	})

	return r
}
