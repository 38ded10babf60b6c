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

	"github.com/couchcryptid/radar-basedata-etl/internal/adapter/filesystem"
	"github.com/couchcryptid/radar-basedata-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/radar-basedata-etl/internal/adapter/kafka"
	"github.com/couchcryptid/radar-basedata-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/radar-basedata-etl/internal/config"
	"github.com/couchcryptid/radar-basedata-etl/internal/observability"
	"github.com/couchcryptid/radar-basedata-etl/internal/pipeline"
	"github.com/couchcryptid/radar-basedata-etl/internal/site"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, err := sqlite.Open(ctx, cfg.CatalogPath, logger)
	if err != nil {
		logger.Error("failed to open catalog", "error", err, "path", cfg.CatalogPath)
		os.Exit(1)
	}
	defer catalog.Close()

	if cfg.SiteTablePath != "" {
		if err := importSites(ctx, catalog, cfg.SiteTablePath); err != nil {
			logger.Error("failed to import site table", "error", err, "path", cfg.SiteTablePath)
			os.Exit(1)
		}
	}

	if cfg.RenderDir != "" {
		if err := os.MkdirAll(cfg.RenderDir, 0o755); err != nil {
			logger.Error("failed to create render dir", "error", err, "path", cfg.RenderDir)
			os.Exit(1)
		}
		logger.Info("ppi rendering enabled", "dir", cfg.RenderDir)
	}

	scanner, err := filesystem.NewScanner(cfg.InputDir, cfg.InputPattern, catalog, logger)
	if err != nil {
		logger.Error("failed to create scanner", "error", err)
		os.Exit(1)
	}
	writer := kafkaadapter.NewWriter(cfg, logger)
	sites := site.NewCachedTable(catalog, cfg.SiteCacheSize)
	transformer := pipeline.NewTransformer(sites, cfg.RenderDir, logger, metrics)

	p := pipeline.New(scanner, transformer, writer, logger, metrics, pipeline.Options{
		BatchSize: cfg.BatchSize,
		Workers:   cfg.DecodeWorkers,
		IdleWait:  cfg.BatchFlushInterval,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, readiness{pipeline: p, catalog: catalog}, catalog, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	done := make(chan struct{})
	go func() {
		defer close(done)
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
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

func importSites(ctx context.Context, catalog *sqlite.Catalog, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = catalog.ImportSites(ctx, f)
	return err
}

// readiness requires both a completed input scan and a reachable catalog.
type readiness struct {
	pipeline *pipeline.Pipeline
	catalog  *sqlite.Catalog
}

func (r readiness) CheckReadiness(ctx context.Context) error {
	if err := r.catalog.Ping(ctx); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	return r.pipeline.CheckReadiness(ctx)
}
