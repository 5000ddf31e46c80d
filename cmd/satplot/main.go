package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/star/satplot/internal/app"
	"github.com/star/satplot/internal/config"
	"github.com/star/satplot/internal/metrics"
	"github.com/star/satplot/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "optional config file (TOML, YAML or JSON)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load(*configPath, logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger = config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	os.Exit(run(cfg, logger))
}

func run(cfg config.Config, logger *slog.Logger) int {
	// Graceful abort on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:  cfg.Tracing.Enabled,
		Exporter: cfg.Tracing.Exporter,
		Endpoint: cfg.Tracing.Endpoint,
	}, logger)
	if err != nil {
		logger.Error("tracing setup failed", "error", err)
		return 1
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		logger.Error("metrics setup failed", "error", err)
		return 1
	}
	defer func() {
		if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("metrics export failed", "error", err)
		}
	}()

	logger.Info("starting",
		"satellite", cfg.Satellite,
		"resolution", cfg.Resolution,
		"horizon", cfg.Horizon.String(),
		"catalog_url", cfg.Catalog.URL,
		"render_mode", cfg.Render.Mode,
	)

	if err := app.Run(ctx, cfg, app.Deps{Logger: logger, Metrics: rec}); err != nil {
		logger.Error("satplot failed", "satellite", cfg.Satellite, "error", err)
		return 1
	}
	return 0
}
