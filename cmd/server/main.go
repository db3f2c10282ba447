// cmd/server/main.go
// This is the entry point for the ClubStakes API server.
// The cmd/ folder holds executable binaries; internal/ holds the packages they are built from.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	// cors lets the mobile app call the API from a different origin
	"github.com/gofiber/fiber/v2/middleware/cors"
	// requestlog prints request details (method, path, status, duration) to stdout
	requestlog "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/config"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/database"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/handlers"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/matches"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/metrics"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/middleware"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/repository"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/scheduler"
	"github.com/arcieron/clubstakes-social-swing-sub000/internal/websocket"
)

func main() {
	// Load configuration from environment variables (and optionally a .env file).
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	// ctx is cancelled on SIGINT/SIGTERM and drives every shutdown below.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("failed to get database handle", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Apply pending migrations so the schema matches this build on every start.
	if err := database.RunMigrations(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// The hub fans match events out to live scorecard streams.
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// The global tracer provider is a no-op until an exporter is installed.
	svc := matches.NewService(
		repository.NewMatchStore(db),
		hub,
		metrics.New(reg),
		logger,
		otel.Tracer("clubstakes"),
	)

	// The sweeper settles fully confirmed matches whose settlement failed earlier.
	sweeper := scheduler.NewSweeper(svc, cfg.SweepInterval, logger)
	if err := sweeper.Start(); err != nil {
		logger.Error("failed to start settlement sweeper", "error", err)
		os.Exit(1)
	}

	app := fiber.New(fiber.Config{
		AppName: "ClubStakes API",
	})
	app.Use(requestlog.New())
	app.Use(cors.New())

	// --- Public routes (no auth required) ---
	app.Get("/health", handlers.HealthCheck)
	app.Get("/ready", handlers.Readiness(sqlDB.PingContext))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	// --- Authenticated API routes ---
	// Auth resolves the Clerk token to a club member; every match route is scoped to that club.
	api := app.Group("/api/v1", middleware.Auth(cfg, repository.NewMemberStore(db)))
	handlers.RegisterMatchRoutes(api, svc, hub)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := sweeper.Stop(); err != nil {
			logger.Warn("sweeper shutdown", "error", err)
		}
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
	}()

	logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
