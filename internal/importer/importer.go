// Package importer merges OCID-style gzip CSV delta dumps into the
// canonical station store. Malformed rows are skipped and counted, never
// fatal; only an unreadable stream or an unavailable store aborts a run.
package importer

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/openstationmap/stationpipe/internal/domain"
	"github.com/openstationmap/stationpipe/internal/observability"
)

// Upserter merges a batch of station rows by natural key: rows matching
// an existing key update it, unseen keys insert. The store enforces
// natural-key uniqueness, so concurrent imports never duplicate rows.
type Upserter interface {
	UpsertStations(ctx context.Context, table domain.Table, records []domain.StationRecord) error
}

// Summary reports one import run.
type Summary struct {
	Merged  int
	Skipped int
}

// Importer reads delta dumps and upserts them batch by batch.
type Importer struct {
	upserter  Upserter
	logger    *slog.Logger
	metrics   *observability.Metrics
	batchSize int
}

func New(upserter Upserter, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Importer {
	return &Importer{
		upserter:  upserter,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// ImportFile imports a gzip CSV delta dump from the local filesystem.
func (i *Importer) ImportFile(ctx context.Context, table domain.Table, path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("open delta file: %w", err)
	}
	defer f.Close()
	return i.ImportStream(ctx, table, f)
}

// ImportStream imports a gzip CSV delta dump from r. A header row is
// detected and skipped; trailing blank lines are tolerated.
func (i *Importer) ImportStream(ctx context.Context, table domain.Table, r io.Reader) (Summary, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return Summary{}, fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	reader := csv.NewReader(gz)
	reader.FieldsPerRecord = -1

	var summary Summary
	batch := make([]domain.StationRecord, 0, i.batchSize)
	line := 0

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("read delta stream: %w", err)
		}
		line++

		if line == 1 && isHeader(fields) {
			continue
		}

		rec, err := parseRow(fields)
		if err != nil {
			i.logger.Warn("skipping malformed delta row", "line", line, "error", err)
			i.metrics.ImportRowsSkipped.Inc()
			summary.Skipped++
			continue
		}

		batch = append(batch, rec)
		if len(batch) >= i.batchSize {
			if err := i.flush(ctx, table, batch, &summary); err != nil {
				return summary, err
			}
			batch = batch[:0]
		}
	}

	if err := i.flush(ctx, table, batch, &summary); err != nil {
		return summary, err
	}

	i.logger.Info("import finished",
		"table", string(table), "merged", summary.Merged, "skipped", summary.Skipped)
	return summary, nil
}

func (i *Importer) flush(ctx context.Context, table domain.Table, batch []domain.StationRecord, summary *Summary) error {
	if len(batch) == 0 {
		return nil
	}
	if err := i.upserter.UpsertStations(ctx, table, batch); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}
	i.metrics.ImportRowsMerged.Add(float64(len(batch)))
	summary.Merged += len(batch)
	return nil
}

func isHeader(fields []string) bool {
	return len(fields) > 0 && fields[0] == domain.ExportColumns[0]
}
