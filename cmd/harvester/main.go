// Command harvester runs the harvest service: it consumes harvest requests
// from Kafka, computes area-weighted statistics over bfg files on disk, and
// publishes the resulting records. It also serves health, readiness,
// metrics, and synchronous harvest HTTP endpoints.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/geoscore/bfg-harvest/internal/adapter/http"
	kafkaadapter "github.com/geoscore/bfg-harvest/internal/adapter/kafka"
	"github.com/geoscore/bfg-harvest/internal/config"
	"github.com/geoscore/bfg-harvest/internal/harvester"
	"github.com/geoscore/bfg-harvest/internal/observability"
	"github.com/geoscore/bfg-harvest/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Load the gridcell area grid before accepting work so a bad weights
	// file fails the deploy instead of the first request.
	weights := harvester.NewWeightProvider(cfg.WeightsPath)
	if _, err := weights.Weights(); err != nil {
		logger.Error("failed to load gridcell area weights", "error", err, "path", cfg.WeightsPath)
		os.Exit(1)
	}
	metrics.WeightsLoaded.Set(1)
	logger.Info("gridcell area weights loaded", "path", cfg.WeightsPath)

	engine := harvester.New(weights, cfg.DataDir, logger)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)

	p := pipeline.New(reader, engine, writer, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, engine, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
