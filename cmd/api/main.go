package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	appHTTP "github.com/cmlabs-hris/attendance-engine/internal/handler/http"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	reportService "github.com/cmlabs-hris/attendance-engine/internal/service/report"
	"github.com/go-chi/httplog/v3"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Service exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(!cfg.IsProduction())
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-engine"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns:     cfg.Database.MaxConns,
		QueryTimeout: cfg.Database.QueryTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	schemaCache := postgresql.NewSchemaCache(db)
	eventRepo := postgresql.NewEventRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	snapshot := postgresql.NewSnapshotRunner(db)

	mappingSvc := attendanceService.NewMappingService(schemaCache, eventRepo, attendanceService.MappingConfig{
		ManualOverride: cfg.Attendance.InOutSwap,
		TTL:            cfg.Attendance.MappingCacheTTL,
		Heuristic:      cfg.Heuristic(),
	})
	reportSvc := reportService.NewReportService(
		schemaCache,
		eventRepo,
		employeeRepo,
		mappingSvc,
		reportService.Config{ShiftOutCutoff: cfg.ShiftOutCutoff()},
		reportService.WithSnapshot(snapshot),
	)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret)
	reportHandler := appHTTP.NewReportHandler(reportSvc)

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		AllowedOrigins: cfg.App.AllowOrigins,
		LogLevel:       cfg.SlogLevel(),
	}, logger, JWTService, reportHandler)

	scheduler := cron.NewScheduler()
	cron.NewMappingJobs(mappingSvc, cfg.Attendance.MappingCacheTTL).RegisterJobs(scheduler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
