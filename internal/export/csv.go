package export

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/openstationmap/stationpipe/internal/domain"
)

// writeShardFile streams records through the fixed column projection into
// a gzip CSV file at path. Returns the number of data rows written.
func writeShardFile(path string, withHeader bool, records []domain.StationRecord) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create shard file: %w", err)
	}

	gz := gzip.NewWriter(f)
	w := csv.NewWriter(gz)

	if withHeader {
		if err := w.Write(domain.ExportColumns); err != nil {
			f.Close()
			return 0, fmt.Errorf("write header: %w", err)
		}
	}

	rows := 0
	for _, rec := range records {
		if err := w.Write(rec.CSVRow()); err != nil {
			f.Close()
			return 0, fmt.Errorf("write row: %w", err)
		}
		rows++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	if err := gz.Close(); err != nil {
		f.Close()
		return 0, fmt.Errorf("close gzip: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close shard file: %w", err)
	}
	return rows, nil
}
