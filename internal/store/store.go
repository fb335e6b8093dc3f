// Package store wraps the canonical MySQL station database. Each logical
// table (cell, cell_ocid) is one physical table with a unique index on the
// natural key, which is what makes concurrent import upserts safe without
// application-level locking. The geographic shard is not part of the key:
// it is derived from the row's coordinates and applied as a predicate on
// export reads only, so a station whose coordinates move across a
// hemisphere boundary still updates in place.
//
// The DSN must enable parseTime so DATETIME columns scan into time.Time.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/openstationmap/stationpipe/internal/domain"
	"github.com/openstationmap/stationpipe/internal/gate"
)

// ErrUnknownKey is returned when an API key has no row in the key table.
var ErrUnknownKey = errors.New("unknown api key")

const stationColumns = "radio, mcc, net, area, cell, unit, lon, lat, `range`, samples, changeable, created, modified, avg_signal"

// Store is the canonical station database handle. It is safe for
// concurrent use; database/sql pools connections underneath.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to MySQL and verifies the connection.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// NewWithDB wraps an existing handle; used by tests and scope routing.
func NewWithDB(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// tableName validates a logical table against the closed set, so no SQL
// identifier ever comes from input data.
func tableName(table domain.Table) (string, error) {
	switch table {
	case domain.TableCell, domain.TableOCID:
		return string(table), nil
	}
	return "", fmt.Errorf("unknown table %q", table)
}

// shardPredicate returns the WHERE fragment selecting one geographic
// shard. The sign conventions mirror domain.ShardFor: latitude >= 0 is
// north, longitude >= 0 is east.
func shardPredicate(shard domain.ShardID) (string, error) {
	switch shard {
	case domain.ShardNorthEast:
		return "lat >= 0 AND lon >= 0", nil
	case domain.ShardNorthWest:
		return "lat >= 0 AND lon < 0", nil
	case domain.ShardSouthEast:
		return "lat < 0 AND lon >= 0", nil
	case domain.ShardSouthWest:
		return "lat < 0 AND lon < 0", nil
	}
	return "", fmt.Errorf("unknown shard %q", shard)
}

// ModifiedStations returns the rows of one shard modified within
// [start, end). A zero start drops the lower bound.
func (s *Store) ModifiedStations(ctx context.Context, table domain.Table, shard domain.ShardID, start, end time.Time) ([]domain.StationRecord, error) {
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	predicate, err := shardPredicate(shard)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + stationColumns + " FROM " + name +
		" WHERE " + predicate + " AND modified < ?"
	args := []any{end}
	if !start.IsZero() {
		query += " AND modified >= ?"
		args = append(args, start)
	}
	query += " ORDER BY radio, mcc, net, area, cell"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", name, err)
	}
	defer rows.Close()

	var records []domain.StationRecord
	for rows.Next() {
		var (
			rec       domain.StationRecord
			unit      sql.NullInt64
			avgSignal sql.NullInt64
			changed   int
		)
		err := rows.Scan(&rec.RadioType, &rec.MobileCountryCode, &rec.MobileNetworkCode,
			&rec.AreaCode, &rec.CellID, &unit, &rec.Lon, &rec.Lat, &rec.RangeM,
			&rec.Samples, &changed, &rec.Created, &rec.Modified, &avgSignal)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		if unit.Valid {
			v := int(unit.Int64)
			rec.Unit = &v
		}
		if avgSignal.Valid {
			v := int(avgSignal.Int64)
			rec.AverageSignal = &v
		}
		rec.Changeable = changed != 0
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpsertStations merges records into the table by natural key as one
// multi-row INSERT with ON DUPLICATE KEY UPDATE. All records go through
// the single physical table regardless of coordinates, so a re-import
// that moves a station across shards updates the existing row instead of
// inserting a duplicate.
func (s *Store) UpsertStations(ctx context.Context, table domain.Table, records []domain.StationRecord) error {
	if len(records) == 0 {
		return nil
	}

	name, err := tableName(table)
	if err != nil {
		return err
	}

	query, args := buildUpsert(name, records)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s: %w", name, err)
	}
	return nil
}

// buildUpsert assembles the multi-row upsert statement and its arguments.
func buildUpsert(name string, records []domain.StationRecord) (string, []any) {
	placeholders := make([]string, 0, len(records))
	args := make([]any, 0, len(records)*14)

	for _, rec := range records {
		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			rec.RadioType, rec.MobileCountryCode, rec.MobileNetworkCode,
			rec.AreaCode, rec.CellID, nullableInt(rec.Unit),
			rec.Lon, rec.Lat, rec.RangeM, rec.Samples, boolInt(rec.Changeable),
			rec.Created, rec.Modified, nullableInt(rec.AverageSignal),
		)
	}

	query := "INSERT INTO " + name + " (" + stationColumns + ") VALUES " +
		strings.Join(placeholders, ", ") +
		" ON DUPLICATE KEY UPDATE" +
		" lon = VALUES(lon), lat = VALUES(lat), `range` = VALUES(`range`)," +
		" samples = VALUES(samples), changeable = VALUES(changeable)," +
		" modified = VALUES(modified), avg_signal = VALUES(avg_signal)"

	return query, args
}

// APIKey resolves the sampling configuration for one submission key.
func (s *Store) APIKey(ctx context.Context, key string) (gate.APIKey, error) {
	var (
		cfg  gate.APIKey
		rate float64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT valid_key, sample_rate, daily_limit FROM api_key WHERE valid_key = ?", key).
		Scan(&cfg.Key, &rate, &cfg.DailyLimit)
	if errors.Is(err, sql.ErrNoRows) {
		return gate.APIKey{}, ErrUnknownKey
	}
	if err != nil {
		return gate.APIKey{}, fmt.Errorf("select api key: %w", err)
	}
	cfg.SampleRate = rate
	return cfg, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
