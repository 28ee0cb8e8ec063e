package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/remiges-tech/stopsearch"
	"github.com/remiges-tech/stopsearch/internal/config"
	"github.com/remiges-tech/stopsearch/internal/handler"
	"github.com/remiges-tech/stopsearch/internal/logger"
	"github.com/remiges-tech/stopsearch/internal/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	warm := flag.Bool("warm", false, "load the stop catalog before serving")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting stop search service", "port", cfg.Server.Port, "source", cfg.Source.Type)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	searchConfig := stopsearch.NewConfigWithOptions(cfg.Source.Settings(), stopsearch.Options{
		DefaultLimit:   cfg.Search.DefaultLimit,
		MaxLimit:       cfg.Search.MaxLimit,
		MinQueryLength: cfg.Search.MinQueryLength,
	})
	if m != nil {
		searchConfig.Observer = m
	}

	searcher, err := stopsearch.New(cfg.Source.Type, searchConfig)
	if err != nil {
		slog.Error("failed to open stop source", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := searcher.Close(); err != nil {
			slog.Error("failed to close stop source", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *warm || cfg.Search.Warm {
		if err := searcher.Warm(ctx); err != nil {
			// Suggest retries the load, so the service can still come up.
			slog.Error("catalog warm-up failed", "error", err)
		}
	}

	h := handler.New(searcher, m)
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h.Routes(metricsPath),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("stop search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("stop search service stopped")
}
