package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"adsreporter/internal/delivery"
	"adsreporter/internal/domain"
	"adsreporter/internal/infrastructure"
	"adsreporter/internal/usecase"
	"adsreporter/pkg/config"
	"adsreporter/pkg/logger"
	"adsreporter/pkg/metrics"
)

const shutdownTimeout = 15 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.Logging.Level)
	m := metrics.New(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := infrastructure.OpenDB(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := infrastructure.NewBoltCredentialStore(db, log)
	if err != nil {
		return err
	}

	graph := infrastructure.NewGraphClient(cfg.Graph, log, m)
	gateway := usecase.NewGateway(graph, log, m)
	dashboard := usecase.NewDashboard(gateway, store, log, m, usecase.DashboardOptions{
		ChartSize: cfg.Refresh.ChartWindow,
	})

	gemini, err := infrastructure.NewGeminiGenerator(ctx, cfg.AI, log, m)
	if err != nil {
		return err
	}
	var generator domain.TextGenerator
	if gemini != nil {
		generator = gemini
	} else {
		log.Warn("GEMINI_API_KEY not set, AI insights disabled")
	}
	insights := usecase.NewInsightsService(generator, log, m)

	scheduler := usecase.NewScheduler(dashboard, usecase.SchedulerConfig{
		RealInterval:      cfg.Refresh.RealInterval,
		SimulatedInterval: cfg.Refresh.SimulatedInterval,
		ChartInterval:     cfg.Refresh.ChartInterval,
		AutoRefresh:       cfg.Refresh.AutoRefresh,
	}, log)

	if err := dashboard.Initialize(ctx); err != nil {
		log.WithError(err).Warn("Could not restore dashboard from stored token")
	}

	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()

	handlers := delivery.NewHTTPHandlers(dashboard, scheduler, insights, log, version)
	router := delivery.NewHTTPRouter(handlers, cfg.Server, log, m, prometheus.DefaultGatherer).SetupRoutes()

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
