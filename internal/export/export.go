// Package export writes windowed station snapshots as gzip CSV shard
// files and uploads them to object storage. Shards are disjoint by
// construction, so processing order is irrelevant and a failed shard
// never blocks the others.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openstationmap/stationpipe/internal/domain"
	"github.com/openstationmap/stationpipe/internal/observability"
)

// StationSource yields the station rows of one shard modified within a
// window. A zero start means no lower bound.
type StationSource interface {
	ModifiedStations(ctx context.Context, table domain.Table, shard domain.ShardID, start, end time.Time) ([]domain.StationRecord, error)
}

// ObjectStore uploads one finished shard file. Failures are reported per
// key, independent of other keys in the same run.
type ObjectStore interface {
	PutFile(ctx context.Context, key, localPath string) error
}

// ShardResult records the outcome for one non-empty shard.
type ShardResult struct {
	Shard domain.ShardID
	Key   string
	Rows  int
	Err   error
}

// RunSummary aggregates per-shard outcomes of one export run. Empty
// shards are skipped entirely and do not appear.
type RunSummary struct {
	Table  domain.Table
	Window Window
	Shards []ShardResult
}

// UploadedKeys lists the object keys that were uploaded successfully.
func (s RunSummary) UploadedKeys() []string {
	keys := make([]string, 0, len(s.Shards))
	for _, r := range s.Shards {
		if r.Err == nil {
			keys = append(keys, r.Key)
		}
	}
	return keys
}

// Failed reports whether any shard in the run failed.
func (s RunSummary) Failed() bool {
	for _, r := range s.Shards {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// ObjectKey builds the deterministic upload key for one shard file,
// e.g. "OSM-diff-cell-export-2026-08-27T150000-ne.csv.gz". Consumers
// discover files by this pattern, there is no separate index.
func ObjectKey(dataset string, w Window, table domain.Table, shard domain.ShardID) string {
	return fmt.Sprintf("%s-%s-%s-export-%s-%s.csv.gz", dataset, w.Kind, table, w.Stamp(), shard)
}

// Exporter runs windowed exports against a station source and an object
// store.
type Exporter struct {
	source  StationSource
	store   ObjectStore
	logger  *slog.Logger
	metrics *observability.Metrics
	dataset string
	header  bool
}

// New creates an Exporter. dataset tags every upload key; header controls
// whether shard files start with a column header row.
func New(source StationSource, store ObjectStore, logger *slog.Logger, metrics *observability.Metrics, dataset string, header bool) *Exporter {
	return &Exporter{
		source:  source,
		store:   store,
		logger:  logger,
		metrics: metrics,
		dataset: dataset,
		header:  header,
	}
}

// Run exports every shard of table for the given window. Per-shard
// failures are collected into the summary; only a failure to set up the
// run itself is returned as an error.
func (e *Exporter) Run(ctx context.Context, table domain.Table, window Window) (RunSummary, error) {
	clock := domain.Clock()
	start := clock.Now()

	dir, err := newWorkDir()
	if err != nil {
		return RunSummary{}, fmt.Errorf("create work dir: %w", err)
	}
	defer dir.Close()

	e.logger.Info("export run started",
		"table", string(table), "kind", string(window.Kind), "stamp", window.Stamp())

	summary := RunSummary{Table: table, Window: window}
	for _, shard := range domain.Shards {
		result, empty := e.exportShard(ctx, dir, table, shard, window)
		if empty {
			continue
		}
		summary.Shards = append(summary.Shards, result)

		if result.Err != nil {
			e.logger.Error("shard export failed", "shard", string(shard), "error", result.Err)
			continue
		}
		e.metrics.ExportRows.WithLabelValues(string(table), string(shard)).Add(float64(result.Rows))
		e.logger.Info("shard uploaded", "shard", string(shard), "key", result.Key, "rows", result.Rows)
	}

	e.metrics.ExportRuns.WithLabelValues(string(table), string(window.Kind), runOutcome(summary)).Inc()
	e.metrics.ExportRunDuration.Observe(clock.Since(start).Seconds())

	return summary, nil
}

// exportShard selects, writes, and uploads one shard. The second return
// is true when the shard had no rows and nothing was produced.
func (e *Exporter) exportShard(ctx context.Context, dir *workDir, table domain.Table, shard domain.ShardID, window Window) (ShardResult, bool) {
	records, err := e.source.ModifiedStations(ctx, table, shard, window.Start, window.End)
	if err != nil {
		return ShardResult{Shard: shard, Err: fmt.Errorf("select stations: %w", err)}, false
	}
	if len(records) == 0 {
		return ShardResult{}, true
	}

	key := ObjectKey(e.dataset, window, table, shard)
	path := dir.Path(key)

	rows, err := writeShardFile(path, e.header, records)
	if err != nil {
		return ShardResult{Shard: shard, Key: key, Err: err}, false
	}

	if err := e.store.PutFile(ctx, key, path); err != nil {
		e.metrics.ExportUploadFailures.Inc()
		return ShardResult{Shard: shard, Key: key, Rows: rows, Err: fmt.Errorf("upload %s: %w", key, err)}, false
	}

	return ShardResult{Shard: shard, Key: key, Rows: rows}, false
}

func runOutcome(s RunSummary) string {
	if !s.Failed() {
		return "ok"
	}
	for _, r := range s.Shards {
		if r.Err == nil {
			return "partial"
		}
	}
	return "error"
}
