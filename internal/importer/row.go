package importer

import (
	"fmt"
	"strconv"
	"time"

	"github.com/openstationmap/stationpipe/internal/domain"
)

// Column indexes into the fixed export column order.
const (
	colRadio = iota
	colMCC
	colNet
	colArea
	colCell
	colUnit
	colLon
	colLat
	colRange
	colSamples
	colChangeable
	colCreated
	colUpdated
	colAverageSignal
)

// parseRow converts one delta CSV row into a StationRecord. Missing
// optional fields default; malformed required fields fail the row.
func parseRow(fields []string) (domain.StationRecord, error) {
	var rec domain.StationRecord

	if len(fields) != len(domain.ExportColumns) {
		return rec, fmt.Errorf("expected %d fields, got %d", len(domain.ExportColumns), len(fields))
	}

	radio, ok := domain.NormalizeRadioType(fields[colRadio])
	if !ok || radio == "" {
		return rec, fmt.Errorf("radio: unknown type %q", fields[colRadio])
	}
	rec.RadioType = radio

	var err error
	if rec.MobileCountryCode, err = requiredInt("mcc", fields[colMCC]); err != nil {
		return rec, err
	}
	if rec.MobileNetworkCode, err = requiredInt("net", fields[colNet]); err != nil {
		return rec, err
	}
	if rec.AreaCode, err = requiredInt("area", fields[colArea]); err != nil {
		return rec, err
	}
	cell, err := strconv.ParseInt(fields[colCell], 10, 64)
	if err != nil {
		return rec, fmt.Errorf("cell: %q is not an integer", fields[colCell])
	}
	rec.CellID = cell

	if rec.Lon, err = requiredCoord("lon", fields[colLon], 180); err != nil {
		return rec, err
	}
	if rec.Lat, err = requiredCoord("lat", fields[colLat], 90); err != nil {
		return rec, err
	}

	if rec.Unit, err = optionalInt("unit", fields[colUnit]); err != nil {
		return rec, err
	}
	if rec.AverageSignal, err = optionalInt("averageSignal", fields[colAverageSignal]); err != nil {
		return rec, err
	}
	if rec.RangeM, err = defaultedInt("range", fields[colRange]); err != nil {
		return rec, err
	}
	if rec.Samples, err = defaultedInt("samples", fields[colSamples]); err != nil {
		return rec, err
	}
	rec.Changeable = fields[colChangeable] != "0"

	if rec.Created, err = epochTime("created", fields[colCreated]); err != nil {
		return rec, err
	}
	if rec.Modified, err = epochTime("updated", fields[colUpdated]); err != nil {
		return rec, err
	}

	return rec, nil
}

func requiredInt(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", name, raw)
	}
	return n, nil
}

func requiredCoord(name, raw string, bound float64) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", name, raw)
	}
	if v < -bound || v > bound {
		return 0, fmt.Errorf("%s: %v is outside the valid range [%v, %v]", name, v, -bound, bound)
	}
	return v, nil
}

func optionalInt(name, raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not an integer", name, raw)
	}
	return &n, nil
}

func defaultedInt(name, raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return requiredInt(name, raw)
}

// epochTime parses Unix seconds; empty means unknown and stays zero.
func epochTime(name, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %q is not an epoch timestamp", name, raw)
	}
	return time.Unix(secs, 0).UTC(), nil
}
