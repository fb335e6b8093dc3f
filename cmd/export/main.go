// Command export runs one export window against the station store and
// uploads the shard files to object storage. Connection settings come
// from the same environment variables as the service.
//
// Usage:
//
//	go run ./cmd/export -table cell              # diff of the last completed hour
//	go run ./cmd/export -table cell -full       # full snapshot up to today 00:00 UTC
//	go run ./cmd/export -table cell -since 2026-08-27T10:00:00Z
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openstationmap/stationpipe/internal/adapter/s3"
	"github.com/openstationmap/stationpipe/internal/config"
	"github.com/openstationmap/stationpipe/internal/domain"
	"github.com/openstationmap/stationpipe/internal/export"
	"github.com/openstationmap/stationpipe/internal/observability"
	"github.com/openstationmap/stationpipe/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("export failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	table := flag.String("table", "cell", "station table to export (cell or cell_ocid)")
	full := flag.Bool("full", false, "export the full snapshot instead of an hourly diff")
	since := flag.String("since", "", "export rows modified since this RFC3339 time (diff only)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.MySQLDSN == "" {
		return fmt.Errorf("MYSQL_DSN is required")
	}

	window, err := buildWindow(*full, *since)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.MySQLDSN, logger)
	if err != nil {
		return fmt.Errorf("open station store: %w", err)
	}
	defer st.Close()

	s3client, err := s3.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("create object store client: %w", err)
	}

	exporter := export.New(st, s3client, logger, metrics, cfg.DatasetTag, cfg.ExportHeader)

	summary, err := exporter.Run(ctx, domain.Table(*table), window)
	if err != nil {
		return err
	}

	for _, shard := range summary.Shards {
		if shard.Err != nil {
			fmt.Printf("%-4s FAILED: %v\n", shard.Shard, shard.Err)
			continue
		}
		fmt.Printf("%-4s %7d rows  %s\n", shard.Shard, shard.Rows, shard.Key)
	}
	if len(summary.Shards) == 0 {
		fmt.Println("no rows in window, nothing uploaded")
	}

	if summary.Failed() {
		return fmt.Errorf("one or more shards failed")
	}
	return nil
}

func buildWindow(full bool, since string) (export.Window, error) {
	now := domain.Clock().Now()
	if full {
		if since != "" {
			return export.Window{}, fmt.Errorf("-since only applies to diff exports")
		}
		return export.NewWindow(export.KindFull, now), nil
	}
	if since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return export.Window{}, fmt.Errorf("parse -since: %w", err)
		}
		return export.WindowSince(t, now), nil
	}
	return export.NewWindow(export.KindDiff, now), nil
}
