package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/foamdesk/foamdesk/internal/backup"
	"github.com/foamdesk/foamdesk/internal/config"
	"github.com/foamdesk/foamdesk/internal/db"
	"github.com/foamdesk/foamdesk/internal/logger"
	"github.com/foamdesk/foamdesk/internal/migrations"
	"github.com/foamdesk/foamdesk/internal/seed"
	"github.com/foamdesk/foamdesk/internal/store"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	auth   *authService
	store  *store.Store
	backup *backup.Service
	logger *zap.Logger
	now    func() time.Time
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "foamdesk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.IsDev())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	for _, warning := range cfg.Warnings() {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := migrations.Up(database, logger.Named(log, "migrations")); err != nil {
		return err
	}

	st := store.New(database, logger.Named(log, "store"))
	stats, err := seed.Run(ctx, st)
	if err != nil {
		return err
	}
	log.Info("seed complete", zap.Int("inserts", stats.Inserts))

	backups := backup.New(st, logger.Named(log, "backup"))
	if cfg.BackupsEnabled() {
		scheduler, err := backup.NewScheduler(backups, cfg.BackupDir, cfg.BackupSchedule, logger.Named(log, "scheduler"))
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	auth, err := newAuthService(st, cfg.SessionSecret)
	if err != nil {
		return err
	}

	srv := &server{
		auth:   auth,
		store:  st,
		backup: backups,
		logger: logger.Named(log, "http"),
		now:    time.Now,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.Env))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/me", s.handleMe)
		r.Get("/settings", s.handleSettingsGet)
		r.Put("/settings", s.handleSettingsUpdate)
		r.Get("/dashboard", s.handleDashboard)

		r.Route("/estimates", func(r chi.Router) {
			r.Post("/calculate", s.handleEstimateCalculate)
			r.Get("/", s.handleEstimatesList)
			r.Post("/", s.handleEstimateCreate)
			r.Get("/{id}", s.handleEstimateGet)
			r.Delete("/{id}", s.handleEstimateDelete)
			r.Put("/{id}/status", s.handleEstimateStatus)
			r.Get("/{id}/text", s.handleEstimateText)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", s.handleCustomersList)
			r.Post("/", s.handleCustomerCreate)
			r.Get("/{id}", s.handleCustomerGet)
			r.Put("/{id}", s.handleCustomerUpdate)
			r.Delete("/{id}", s.handleCustomerDelete)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", s.handleInventoryList)
			r.Post("/", s.handleInventoryCreate)
			r.Put("/{id}", s.handleInventoryUpdate)
			r.Delete("/{id}", s.handleInventoryDelete)
			r.Post("/{id}/adjust", s.handleInventoryAdjust)
		})

		r.Route("/data", func(r chi.Router) {
			r.Get("/export", s.handleExport)
			r.Post("/import", s.handleImport)
			r.Post("/clear", s.handleClear)
		})
	})

	return r
}
