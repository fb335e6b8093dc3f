package domain

import (
	"strconv"
	"strings"
	"time"
)

// Table names a station table eligible for export and import.
type Table string

const (
	TableCell Table = "cell"
	TableOCID Table = "cell_ocid" // third-party delta imports land here
)

// ExportColumns is the fixed, ordered column list of the station CSV
// exchange format (OCID-compatible).
var ExportColumns = []string{
	"radio", "mcc", "net", "area", "cell", "unit",
	"lon", "lat", "range", "samples", "changeable",
	"created", "updated", "averageSignal",
}

// StationKey is the natural key of a station record. The backing store
// enforces uniqueness on it; imports upsert by it.
type StationKey struct {
	RadioType         string
	MobileCountryCode int
	MobileNetworkCode int
	AreaCode          int
	CellID            int64
}

// StationRecord is one row of the accumulated station table. It is written
// by the aggregation consumer and by delta imports, and read by the export
// pipeline.
type StationRecord struct {
	RadioType         string
	MobileCountryCode int
	MobileNetworkCode int
	AreaCode          int
	CellID            int64
	Unit              *int // PSC / PCI, unknown for most GSM cells

	Lat float64
	Lon float64

	RangeM        int
	Samples       int
	Changeable    bool
	AverageSignal *int

	Created  time.Time
	Modified time.Time
}

// Key returns the record's natural key.
func (s StationRecord) Key() StationKey {
	return StationKey{
		RadioType:         s.RadioType,
		MobileCountryCode: s.MobileCountryCode,
		MobileNetworkCode: s.MobileNetworkCode,
		AreaCode:          s.AreaCode,
		CellID:            s.CellID,
	}
}

// Shard returns the geographic shard this record exports into.
func (s StationRecord) Shard() ShardID {
	return ShardFor(s.Lat, s.Lon)
}

// Grid returns the record's quantized map-tile coordinate.
func (s StationRecord) Grid() GridCoord {
	return ScaleGrid(s.Lat, s.Lon)
}

// CSVRow projects the record onto ExportColumns. Radio types are uppercased
// on the wire ("GSM"), timestamps are epoch seconds, booleans are 0/1, and
// unknown optional columns are empty.
func (s StationRecord) CSVRow() []string {
	unit := ""
	if s.Unit != nil {
		unit = strconv.Itoa(*s.Unit)
	}
	avg := ""
	if s.AverageSignal != nil {
		avg = strconv.Itoa(*s.AverageSignal)
	}
	changeable := "0"
	if s.Changeable {
		changeable = "1"
	}
	return []string{
		strings.ToUpper(s.RadioType),
		strconv.Itoa(s.MobileCountryCode),
		strconv.Itoa(s.MobileNetworkCode),
		strconv.Itoa(s.AreaCode),
		strconv.FormatInt(s.CellID, 10),
		unit,
		formatCoord(s.Lon),
		formatCoord(s.Lat),
		strconv.Itoa(s.RangeM),
		strconv.Itoa(s.Samples),
		changeable,
		strconv.FormatInt(s.Created.Unix(), 10),
		strconv.FormatInt(s.Modified.Unix(), 10),
		avg,
	}
}

// formatCoord keeps coordinates compact: no exponent form, no trailing
// zero-padding beyond what the value needs.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
