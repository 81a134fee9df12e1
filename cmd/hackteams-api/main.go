package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/hackteams-api/internal/config"
	"github.com/dimitrije/hackteams-api/internal/database"
	"github.com/dimitrije/hackteams-api/internal/handlers"
	"github.com/dimitrije/hackteams-api/internal/metrics"
	authmw "github.com/dimitrije/hackteams-api/internal/middleware"
	"github.com/dimitrije/hackteams-api/internal/notify"
	"github.com/dimitrije/hackteams-api/internal/services"
	"github.com/dimitrije/hackteams-api/internal/sse"
	"github.com/dimitrije/hackteams-api/internal/store"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Both outlive ctx: the hub is stopped first to end open streams, the
	// dispatcher last so queued notifications can drain.
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	notifyCtx, stopNotify := context.WithCancel(context.Background())
	defer stopNotify()

	hub := sse.NewHub(logger.Named("sse"))
	go hub.Run(hubCtx)

	channels := []notify.Channel{notify.NewInAppChannel(hub)}
	email := notify.NewEmailChannel(cfg.SMTP, cfg.BaseURL, notify.RetryPolicy{
		MaxRetries:     cfg.Notify.MaxRetries,
		InitialBackoff: cfg.Notify.InitialBackoff,
	})
	if email.IsConfigured() {
		channels = append(channels, email)
	} else {
		logger.Warn("SMTP is not configured, email notifications are disabled")
	}
	dispatcher := notify.NewDispatcher(notify.Options{
		QueueSize: cfg.Notify.QueueSize,
		Workers:   cfg.Notify.Workers,
	}, logger.Named("notify"), m, channels...)
	dispatcher.Start(notifyCtx)

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry)
	resolver := services.NewMembershipResolver(st)
	teamService := services.NewTeamService(st)
	userService := services.NewUserService(st)
	joins := services.NewJoinCoordinator(st, dispatcher, m, logger.Named("join"))
	merges := services.NewMergeCoordinator(st, dispatcher, m, logger.Named("merge"))

	if cfg.DemoMode {
		if err := seedDemo(ctx, logger, jwtService, userService, teamService, joins); err != nil {
			logger.Fatal("Failed to seed demo data", zap.Error(err))
		}
	}

	runtime := cfg.Runtime()
	httpLog := logger.Named("http")
	membershipHandler := handlers.NewMembershipHandler(resolver, runtime, httpLog)
	teamHandler := handlers.NewTeamHandler(teamService, joins, httpLog)
	joinHandler := handlers.NewJoinHandler(joins, runtime, httpLog)
	mergeHandler := handlers.NewMergeHandler(merges, httpLog)
	notificationHandler := handlers.NewNotificationHandler(hub)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Get("/events/:eventId/membership", membershipHandler.Get)
	protected.Post("/events/:eventId/teams", teamHandler.Register)
	protected.Post("/events/:eventId/registrations", teamHandler.RegisterIndividual)
	protected.Post("/events/:eventId/teams/:teamId/join", joinHandler.Join)
	protected.Post("/events/:eventId/merge-invitations", mergeHandler.Send)

	protected.Post("/members/:memberId/confirm", joinHandler.Confirm)

	protected.Get("/teams/:teamId", teamHandler.Get)
	protected.Get("/teams/:teamId/members", teamHandler.GetMembers)
	protected.Post("/teams/:teamId/invitees", joinHandler.SeedInvitee)
	protected.Post("/teams/:teamId/complete", teamHandler.Complete)
	protected.Get("/teams/:teamId/merge-invitations", mergeHandler.List)

	protected.Post("/merge-invitations/:invitationId/respond", mergeHandler.Respond)
	protected.Delete("/merge-invitations/:invitationId", mergeHandler.Cancel)

	protected.Get("/notifications/stream", notificationHandler.Stream)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.MetricsPort),
		Handler:           metrics.Handler(reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Metrics listener starting", zap.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics listener failed", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("Server starting",
			zap.String("addr", server.Addr),
			zap.String("store", cfg.StoreDriver),
			zap.Bool("demo_mode", cfg.DemoMode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	stopHub()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown incomplete", zap.Error(err))
	}
	if err := dispatcher.Close(); err != nil {
		logger.Warn("Notification dispatcher closed with errors", zap.Error(err))
	}
	stopNotify()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Metrics listener shutdown incomplete", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		st, err := store.NewMemory()
		if err != nil {
			return nil, nil, err
		}
		return st, func() {}, nil
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return store.NewPostgres(db), db.Close, nil
}
