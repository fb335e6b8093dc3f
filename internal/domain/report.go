package domain

import "strings"

// DefaultSource is the source tag assumed for a report whose position does
// not name one: satellite positioning.
const DefaultSource = "gnss"

// Position is the observed device position attached to a report.
// All fields are optional; nil means unknown.
type Position struct {
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	Accuracy         *float64 `json:"accuracy,omitempty"`
	Age              *int64   `json:"age,omitempty"`
	Altitude         *float64 `json:"altitude,omitempty"`
	AltitudeAccuracy *float64 `json:"altitudeAccuracy,omitempty"`
	Heading          *float64 `json:"heading,omitempty"`
	Pressure         *float64 `json:"pressure,omitempty"`
	Speed            *float64 `json:"speed,omitempty"`
	Source           string   `json:"source,omitempty"`
}

// CellTower is one observed cell. Duplicates are preserved as submitted;
// deduplication belongs to the aggregation consumer.
type CellTower struct {
	RadioType             string `json:"radioType,omitempty"`
	MobileCountryCode     *int64 `json:"mobileCountryCode,omitempty"`
	MobileNetworkCode     *int64 `json:"mobileNetworkCode,omitempty"`
	LocationAreaCode      *int64 `json:"locationAreaCode,omitempty"`
	CellID                *int64 `json:"cellId,omitempty"`
	Age                   *int64 `json:"age,omitempty"`
	ASU                   *int64 `json:"asu,omitempty"`
	PrimaryScramblingCode *int64 `json:"primaryScramblingCode,omitempty"`
	Serving               *int64 `json:"serving,omitempty"`
	SignalStrength        *int64 `json:"signalStrength,omitempty"`
	TimingAdvance         *int64 `json:"timingAdvance,omitempty"`
}

// WifiAccessPoint is one observed Wi-Fi access point, keyed by MAC address.
type WifiAccessPoint struct {
	MACAddress         string `json:"macAddress,omitempty"`
	Age                *int64 `json:"age,omitempty"`
	Channel            *int64 `json:"channel,omitempty"`
	Frequency          *int64 `json:"frequency,omitempty"`
	RadioType          string `json:"radioType,omitempty"`
	SignalStrength     *int64 `json:"signalStrength,omitempty"`
	SignalToNoiseRatio *int64 `json:"signalToNoiseRatio,omitempty"`
	SSID               string `json:"ssid,omitempty"`
}

// BluetoothBeacon is one observed Bluetooth beacon, keyed by MAC address.
type BluetoothBeacon struct {
	MACAddress     string `json:"macAddress,omitempty"`
	Age            *int64 `json:"age,omitempty"`
	Name           string `json:"name,omitempty"`
	SignalStrength *int64 `json:"signalStrength,omitempty"`
}

// Report is the canonical, version-independent form of one submitted
// observation. All three wire formats normalize into this shape.
type Report struct {
	Carrier               string `json:"carrier,omitempty"`
	HomeMobileCountryCode *int64 `json:"homeMobileCountryCode,omitempty"`
	HomeMobileNetworkCode *int64 `json:"homeMobileNetworkCode,omitempty"`
	Timestamp             *int64 `json:"timestamp,omitempty"` // Unix epoch milliseconds

	Position         *Position         `json:"position,omitempty"`
	CellTowers       []CellTower       `json:"cellTowers,omitempty"`
	WifiAccessPoints []WifiAccessPoint `json:"wifiAccessPoints,omitempty"`
	BluetoothBeacons []BluetoothBeacon `json:"bluetoothBeacons,omitempty"`
}

// Empty reports carry no observations at all and are rejected at the gate.
func (r *Report) Empty() bool {
	return len(r.CellTowers) == 0 &&
		len(r.WifiAccessPoints) == 0 &&
		len(r.BluetoothBeacons) == 0
}

// SourceTag resolves the per-report source tag: the nested position's source
// when present, DefaultSource otherwise.
func (r *Report) SourceTag() string {
	if r.Position != nil && r.Position.Source != "" {
		return r.Position.Source
	}
	return DefaultSource
}

// NormalizeRadioType maps a client-supplied radio type onto the canonical
// set, case-insensitively. The legacy "umts" alias becomes "wcdma". The
// second return is false for unknown values, in which case callers drop the
// field rather than failing the report.
func NormalizeRadioType(radio string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(radio)) {
	case "gsm":
		return "gsm", true
	case "wcdma", "umts":
		return "wcdma", true
	case "lte":
		return "lte", true
	}
	return "", false
}
