package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/openstationmap/stationpipe/internal/adapter/http"
	kafkaadapter "github.com/openstationmap/stationpipe/internal/adapter/kafka"
	"github.com/openstationmap/stationpipe/internal/adapter/s3"
	"github.com/openstationmap/stationpipe/internal/config"
	"github.com/openstationmap/stationpipe/internal/domain"
	"github.com/openstationmap/stationpipe/internal/export"
	"github.com/openstationmap/stationpipe/internal/gate"
	"github.com/openstationmap/stationpipe/internal/observability"
	"github.com/openstationmap/stationpipe/internal/pipeline"
	"github.com/openstationmap/stationpipe/internal/store"
)

// exportTables lists the station tables the scheduler exports.
var exportTables = []domain.Table{domain.TableCell, domain.TableOCID}

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

	// Initialize the station store (feature-flagged via MYSQL_DSN). Without
	// it every key is admitted at full sample rate and exports are disabled.
	var st *store.Store
	var keys pipeline.KeyResolver
	if cfg.MySQLDSN != "" {
		st, err = store.Open(ctx, cfg.MySQLDSN, logger)
		if err != nil {
			logger.Error("failed to open station store", "error", err)
			os.Exit(1)
		}
		keys = store.NewCachedKeyResolver(st, cfg.KeyCacheSize, metrics)
		logger.Info("station store connected", "key_cache_size", cfg.KeyCacheSize)
	} else {
		keys = openKeys{}
		logger.Info("station store disabled, admitting all keys at full rate")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	admitter := pipeline.NewAdmitter(keys, gate.New(writer), logger)

	p := pipeline.New(reader, admitter, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	// Start the export scheduler when both the store and object storage
	// are configured.
	if st != nil && cfg.S3AccessKey != "" {
		s3client, err := s3.NewClient(cfg, logger)
		if err != nil {
			logger.Error("failed to create object store client", "error", err)
			os.Exit(1)
		}
		exporter := export.New(st, s3client, logger, metrics, cfg.DatasetTag, cfg.ExportHeader)
		go runExportScheduler(ctx, exporter, logger)
		logger.Info("export scheduler enabled", "bucket", cfg.S3Bucket, "dataset", cfg.DatasetTag)
	} else {
		logger.Info("export scheduler disabled")
	}

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ingestion pipeline.
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
	if st != nil {
		if err := st.Close(); err != nil {
			logger.Error("station store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// openKeys admits every API key at full sample rate. Used when no station
// store is configured.
type openKeys struct{}

func (openKeys) APIKey(_ context.Context, key string) (gate.APIKey, error) {
	return gate.APIKey{Key: key, SampleRate: 1}, nil
}

// runExportScheduler wakes once per hour to export the diff window of each
// station table, and once per completed UTC day to export the full
// snapshot.
func runExportScheduler(ctx context.Context, exporter *export.Exporter, logger *slog.Logger) {
	clock := domain.Clock()
	ticker := clock.NewTicker(time.Hour)
	defer ticker.Stop()

	lastFullDay := clock.Now().UTC().Truncate(24 * time.Hour)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		}
		now := clock.Now()

		for _, table := range exportTables {
			runExport(ctx, exporter, table, export.NewWindow(export.KindDiff, now), logger)
		}

		if day := now.UTC().Truncate(24 * time.Hour); day.After(lastFullDay) {
			lastFullDay = day
			for _, table := range exportTables {
				runExport(ctx, exporter, table, export.NewWindow(export.KindFull, now), logger)
			}
		}
	}
}

func runExport(ctx context.Context, exporter *export.Exporter, table domain.Table, w export.Window, logger *slog.Logger) {
	summary, err := exporter.Run(ctx, table, w)
	if err != nil {
		logger.Error("export run failed", "table", string(table), "kind", string(w.Kind), "error", err)
		return
	}
	if summary.Failed() {
		logger.Warn("export run completed with failed shards",
			"table", string(table), "kind", string(w.Kind), "uploaded", summary.UploadedKeys())
	}
}
