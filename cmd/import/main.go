// Command import merges a gzip CSV station dump into the station store.
// The dump comes either from a local file or is downloaded from the OCID
// distribution endpoint first.
//
// Usage:
//
//	go run ./cmd/import -file cell_towers_diff.csv.gz
//	go run ./cmd/import -name cell_towers_diff-2026-08-27T100000.csv.gz
//	go run ./cmd/import -table cell -file backfill.csv.gz
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/openstationmap/stationpipe/internal/adapter/ocid"
	"github.com/openstationmap/stationpipe/internal/config"
	"github.com/openstationmap/stationpipe/internal/domain"
	"github.com/openstationmap/stationpipe/internal/importer"
	"github.com/openstationmap/stationpipe/internal/observability"
	"github.com/openstationmap/stationpipe/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	table := flag.String("table", "cell_ocid", "station table to merge into (cell or cell_ocid)")
	file := flag.String("file", "", "path to a local gzip CSV dump")
	name := flag.String("name", "", "datafile name to download from the OCID endpoint")
	batch := flag.Int("batch", 500, "rows per upsert batch")
	flag.Parse()

	if (*file == "") == (*name == "") {
		flag.Usage()
		return fmt.Errorf("exactly one of -file or -name is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.MySQLDSN == "" {
		return fmt.Errorf("MYSQL_DSN is required")
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := *file
	if *name != "" {
		path, err = download(ctx, cfg, *name, logger)
		if err != nil {
			return err
		}
		defer os.RemoveAll(filepath.Dir(path))
	}

	st, err := store.Open(ctx, cfg.MySQLDSN, logger)
	if err != nil {
		return fmt.Errorf("open station store: %w", err)
	}
	defer st.Close()

	imp := importer.New(st, logger, metrics, *batch)
	summary, err := imp.ImportFile(ctx, domain.Table(*table), path)
	if err != nil {
		return err
	}

	fmt.Printf("merged %d rows, skipped %d\n", summary.Merged, summary.Skipped)
	return nil
}

// download fetches the named dump into a temporary file and returns its path.
func download(ctx context.Context, cfg *config.Config, name string, logger *slog.Logger) (string, error) {
	dir, err := os.MkdirTemp("", "stationpipe-import-")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, filepath.Base(name))

	client := ocid.NewClient(cfg.OCIDBaseURL, cfg.OCIDAPIKey, cfg.OCIDTimeout, logger)
	size, err := client.Download(ctx, name, path)
	if err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("download %s: %w", name, err)
	}
	fmt.Printf("downloaded %s (%d bytes)\n", name, size)
	return path, nil
}
