package schema

import (
	"fmt"

	"github.com/openstationmap/stationpipe/internal/domain"
)

// Version 1 (/v1/geosubmit): full camelCase field names, position fields
// still flat on each item, Unix-millisecond timestamps.

type v1Envelope struct {
	Items *[]v1Item `json:"items"`
}

type v1Item struct {
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Accuracy         *float64 `json:"accuracy"`
	Age              *int64   `json:"age"`
	Altitude         *float64 `json:"altitude"`
	AltitudeAccuracy *float64 `json:"altitudeAccuracy"`
	Heading          *float64 `json:"heading"`
	Speed            *float64 `json:"speed"`
	Timestamp        *int64   `json:"timestamp"`

	Carrier string `json:"carrier"`
	HomeMCC *int64 `json:"homeMobileCountryCode"`
	HomeMNC *int64 `json:"homeMobileNetworkCode"`

	CellTowers       []wireCell `json:"cellTowers"`
	WifiAccessPoints []wireWifi `json:"wifiAccessPoints"`
	BluetoothBeacons []wireBlue `json:"bluetoothBeacons"`
}

// wireCell, wireWifi, and wireBlue are the modern entry shapes shared by v1
// and v2; the two versions differ only above the entry lists.
type wireCell struct {
	RadioType             string `json:"radioType"`
	MobileCountryCode     *int64 `json:"mobileCountryCode"`
	MobileNetworkCode     *int64 `json:"mobileNetworkCode"`
	LocationAreaCode      *int64 `json:"locationAreaCode"`
	CellID                *int64 `json:"cellId"`
	Age                   *int64 `json:"age"`
	ASU                   *int64 `json:"asu"`
	PrimaryScramblingCode *int64 `json:"primaryScramblingCode"`
	Serving               *int64 `json:"serving"`
	SignalStrength        *int64 `json:"signalStrength"`
	TimingAdvance         *int64 `json:"timingAdvance"`
}

type wireWifi struct {
	MACAddress         string `json:"macAddress"`
	Age                *int64 `json:"age"`
	Channel            *int64 `json:"channel"`
	Frequency          *int64 `json:"frequency"`
	RadioType          string `json:"radioType"`
	SignalStrength     *int64 `json:"signalStrength"`
	SignalToNoiseRatio *int64 `json:"signalToNoiseRatio"`
	SSID               string `json:"ssid"`
}

type wireBlue struct {
	MACAddress     string `json:"macAddress"`
	Age            *int64 `json:"age"`
	Name           string `json:"name"`
	SignalStrength *int64 `json:"signalStrength"`
}

func parseV1(payload []byte) ([]domain.Report, error) {
	var env v1Envelope
	if err := decodeEnvelope(payload, &env); err != nil {
		return nil, err
	}
	if env.Items == nil {
		return nil, newParseError("items", "required")
	}

	reports := make([]domain.Report, 0, len(*env.Items))
	for i, item := range *env.Items {
		path := fmt.Sprintf("items[%d]", i)
		if err := validateCoords(path+".latitude", path+".longitude", item.Latitude, item.Longitude); err != nil {
			return nil, err
		}
		if err := validateTimestamp(path+".timestamp", item.Timestamp); err != nil {
			return nil, err
		}

		report := domain.Report{
			Carrier:               item.Carrier,
			HomeMobileCountryCode: item.HomeMCC,
			HomeMobileNetworkCode: item.HomeMNC,
			Timestamp:             item.Timestamp,
		}

		pos := &domain.Position{
			Latitude:         item.Latitude,
			Longitude:        item.Longitude,
			Accuracy:         item.Accuracy,
			Age:              item.Age,
			Altitude:         item.Altitude,
			AltitudeAccuracy: item.AltitudeAccuracy,
			Heading:          item.Heading,
			Speed:            item.Speed,
		}
		if !positionEmpty(pos) {
			report.Position = pos
		}

		convertEntries(&report, item.CellTowers, item.WifiAccessPoints, item.BluetoothBeacons)
		if report.Empty() {
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// convertEntries normalizes the modern entry lists shared by v1 and v2 into
// a report, dropping keyless entries.
func convertEntries(report *domain.Report, cells []wireCell, wifis []wireWifi, blues []wireBlue) {
	for _, c := range cells {
		cell := domain.CellTower{
			MobileCountryCode:     c.MobileCountryCode,
			MobileNetworkCode:     c.MobileNetworkCode,
			LocationAreaCode:      c.LocationAreaCode,
			CellID:                c.CellID,
			Age:                   c.Age,
			ASU:                   c.ASU,
			PrimaryScramblingCode: c.PrimaryScramblingCode,
			Serving:               c.Serving,
			SignalStrength:        c.SignalStrength,
			TimingAdvance:         c.TimingAdvance,
		}
		if normalized, ok := domain.NormalizeRadioType(c.RadioType); ok {
			cell.RadioType = normalized
		}
		if cellEmpty(cell) {
			continue
		}
		report.CellTowers = append(report.CellTowers, cell)
	}

	for _, w := range wifis {
		if w.MACAddress == "" {
			continue
		}
		wifi := domain.WifiAccessPoint{
			MACAddress:         w.MACAddress,
			Age:                w.Age,
			Channel:            w.Channel,
			Frequency:          w.Frequency,
			SignalStrength:     w.SignalStrength,
			SignalToNoiseRatio: w.SignalToNoiseRatio,
			SSID:               w.SSID,
		}
		if normalized, ok := domain.NormalizeRadioType(w.RadioType); ok {
			wifi.RadioType = normalized
		}
		report.WifiAccessPoints = append(report.WifiAccessPoints, wifi)
	}

	for _, b := range blues {
		if b.MACAddress == "" {
			continue
		}
		report.BluetoothBeacons = append(report.BluetoothBeacons, domain.BluetoothBeacon{
			MACAddress:     b.MACAddress,
			Age:            b.Age,
			Name:           b.Name,
			SignalStrength: b.SignalStrength,
		})
	}
}
