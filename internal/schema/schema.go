// Package schema normalizes client submissions in the three historical wire
// formats into the canonical domain.Report.
//
// Version 0 is the oldest format: flat short field names (lat, lon, cell,
// wifi, blue) with an optional item-level radio fallback. Version 1 moved to
// the full camelCase names with flat position fields on each item. Version 2
// nests the position under a "position" object and added the pressure and
// source fields. All three converge on the same output type; version
// differences are confined to naming and envelope shape.
//
// Parsing is pure and tolerant: a missing optional field becomes nil (the
// single unknown sentinel), while out-of-range coordinates, negative
// timestamps, and structural envelope faults produce a ParseError carrying
// per-field details.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/openstationmap/stationpipe/internal/domain"
)

// Version tags the wire format a payload was submitted under.
type Version int

const (
	V0 Version = iota // /v1/submit
	V1                // /v1/geosubmit
	V2                // /v2/geosubmit
)

func (v Version) String() string {
	switch v {
	case V0:
		return "v0"
	case V1:
		return "v1"
	case V2:
		return "v2"
	}
	return fmt.Sprintf("Version(%d)", int(v))
}

// Parse normalizes a raw payload in the given wire format. The returned
// slice preserves submission order; entirely empty items are dropped, so the
// slice may be empty for a structurally valid but observation-free payload.
// Failures are always a *ParseError.
func Parse(version Version, payload []byte) ([]domain.Report, error) {
	switch version {
	case V0:
		return parseV0(payload)
	case V1:
		return parseV1(payload)
	case V2:
		return parseV2(payload)
	}
	return nil, newParseError("version", fmt.Sprintf("unknown schema version %d", int(version)))
}

// decodeEnvelope unmarshals the payload and converts type mismatches into
// field-level details instead of opaque decode errors.
func decodeEnvelope(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		if typeErr, ok := err.(*json.UnmarshalTypeError); ok {
			field := typeErr.Field
			if field == "" {
				field = "body"
			}
			return newParseError(field, fmt.Sprintf("cannot decode %s as %s", typeErr.Value, typeErr.Type))
		}
		return newParseError("body", err.Error())
	}
	return nil
}

// validateCoords bounds-checks a coordinate pair. Out-of-range values are
// rejected with detail under the wire-format field names, never clamped.
func validateCoords(latField, lonField string, lat, lon *float64) *ParseError {
	if lat != nil && (*lat < -90 || *lat > 90) {
		return newParseError(latField,
			fmt.Sprintf("%v is outside the valid range [-90, 90]", *lat))
	}
	if lon != nil && (*lon < -180 || *lon > 180) {
		return newParseError(lonField,
			fmt.Sprintf("%v is outside the valid range [-180, 180]", *lon))
	}
	return nil
}

// validateTimestamp accepts Unix epoch milliseconds; negative values fail.
func validateTimestamp(path string, ts *int64) *ParseError {
	if ts != nil && *ts < 0 {
		return newParseError(path, fmt.Sprintf("%d is not a valid Unix timestamp", *ts))
	}
	return nil
}

// positionEmpty reports whether every field of a position is unknown, in
// which case the canonical report carries no position at all.
func positionEmpty(pos *domain.Position) bool {
	if pos == nil {
		return true
	}
	return pos.Latitude == nil && pos.Longitude == nil && pos.Accuracy == nil &&
		pos.Age == nil && pos.Altitude == nil && pos.AltitudeAccuracy == nil &&
		pos.Heading == nil && pos.Pressure == nil && pos.Speed == nil &&
		pos.Source == ""
}

// cellEmpty reports whether a cell entry carries no identifying fields.
func cellEmpty(c domain.CellTower) bool {
	return c.MobileCountryCode == nil && c.MobileNetworkCode == nil &&
		c.LocationAreaCode == nil && c.CellID == nil
}
