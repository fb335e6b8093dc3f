package schema

import (
	"fmt"
	"time"

	"github.com/openstationmap/stationpipe/internal/domain"
)

// Version 0 (/v1/submit): flat items with short field names and an optional
// item-level radio fallback for cells that omit their own.

type v0Envelope struct {
	Items *[]v0Item `json:"items"`
}

type v0Item struct {
	Lat              *float64 `json:"lat"`
	Lon              *float64 `json:"lon"`
	Accuracy         *float64 `json:"accuracy"`
	Age              *int64   `json:"age"`
	Altitude         *float64 `json:"altitude"`
	AltitudeAccuracy *float64 `json:"altitude_accuracy"`
	Heading          *float64 `json:"heading"`
	Pressure         *float64 `json:"pressure"`
	Speed            *float64 `json:"speed"`
	Source           string   `json:"source"`
	Time             string   `json:"time"`

	Radio   string `json:"radio"`
	Carrier string `json:"carrier"`
	HomeMCC *int64 `json:"homeMobileCountryCode"`
	HomeMNC *int64 `json:"homeMobileNetworkCode"`

	Cell []v0Cell `json:"cell"`
	Wifi []v0Wifi `json:"wifi"`
	Blue []v0Blue `json:"blue"`
}

type v0Cell struct {
	Radio   string `json:"radio"`
	MCC     *int64 `json:"mcc"`
	MNC     *int64 `json:"mnc"`
	LAC     *int64 `json:"lac"`
	CID     *int64 `json:"cid"`
	PSC     *int64 `json:"psc"`
	Age     *int64 `json:"age"`
	ASU     *int64 `json:"asu"`
	Serving *int64 `json:"serving"`
	Signal  *int64 `json:"signal"`
	TA      *int64 `json:"ta"`
}

type v0Wifi struct {
	Key                string `json:"key"`
	Age                *int64 `json:"age"`
	Channel            *int64 `json:"channel"`
	Frequency          *int64 `json:"frequency"`
	Radio              string `json:"radio"`
	Signal             *int64 `json:"signal"`
	SignalToNoiseRatio *int64 `json:"signalToNoiseRatio"`
	SSID               string `json:"ssid"`
}

type v0Blue struct {
	Key    string `json:"key"`
	Age    *int64 `json:"age"`
	Name   string `json:"name"`
	Signal *int64 `json:"signal"`
}

func parseV0(payload []byte) ([]domain.Report, error) {
	var env v0Envelope
	if err := decodeEnvelope(payload, &env); err != nil {
		return nil, err
	}
	if env.Items == nil {
		return nil, newParseError("items", "required")
	}

	reports := make([]domain.Report, 0, len(*env.Items))
	for i, item := range *env.Items {
		path := fmt.Sprintf("items[%d]", i)
		if err := validateCoords(path+".lat", path+".lon", item.Lat, item.Lon); err != nil {
			return nil, err
		}

		report := domain.Report{
			Carrier:               item.Carrier,
			HomeMobileCountryCode: item.HomeMCC,
			HomeMobileNetworkCode: item.HomeMNC,
			Timestamp:             v0Timestamp(item.Time),
		}

		pos := &domain.Position{
			Latitude:         item.Lat,
			Longitude:        item.Lon,
			Accuracy:         item.Accuracy,
			Age:              item.Age,
			Altitude:         item.Altitude,
			AltitudeAccuracy: item.AltitudeAccuracy,
			Heading:          item.Heading,
			Pressure:         item.Pressure,
			Speed:            item.Speed,
			Source:           item.Source,
		}
		if !positionEmpty(pos) {
			report.Position = pos
		}

		for _, c := range item.Cell {
			cell := domain.CellTower{
				MobileCountryCode:     c.MCC,
				MobileNetworkCode:     c.MNC,
				LocationAreaCode:      c.LAC,
				CellID:                c.CID,
				PrimaryScramblingCode: c.PSC,
				Age:                   c.Age,
				ASU:                   c.ASU,
				Serving:               c.Serving,
				SignalStrength:        c.Signal,
				TimingAdvance:         c.TA,
			}
			// Per-cell radio wins over the item-level fallback; an invalid
			// value drops the field, not the entry.
			radio := c.Radio
			if radio == "" {
				radio = item.Radio
			}
			if normalized, ok := domain.NormalizeRadioType(radio); ok {
				cell.RadioType = normalized
			}
			if cellEmpty(cell) {
				continue
			}
			report.CellTowers = append(report.CellTowers, cell)
		}

		for _, w := range item.Wifi {
			if w.Key == "" {
				continue
			}
			wifi := domain.WifiAccessPoint{
				MACAddress:         w.Key,
				Age:                w.Age,
				Channel:            w.Channel,
				Frequency:          w.Frequency,
				SignalStrength:     w.Signal,
				SignalToNoiseRatio: w.SignalToNoiseRatio,
				SSID:               w.SSID,
			}
			if normalized, ok := domain.NormalizeRadioType(w.Radio); ok {
				wifi.RadioType = normalized
			}
			report.WifiAccessPoints = append(report.WifiAccessPoints, wifi)
		}

		for _, b := range item.Blue {
			if b.Key == "" {
				continue
			}
			report.BluetoothBeacons = append(report.BluetoothBeacons, domain.BluetoothBeacon{
				MACAddress:     b.Key,
				Age:            b.Age,
				Name:           b.Name,
				SignalStrength: b.Signal,
			})
		}

		if report.Empty() {
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// v0TimeFloor guards against devices submitting garbage dates; anything
// before it is treated as unknown.
var v0TimeFloor = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// v0Timestamp converts the legacy "time" string (date or datetime) into
// Unix epoch milliseconds. Unparseable or implausibly old values become nil.
func v0Timestamp(value string) *int64 {
	if value == "" {
		return nil
	}
	var parsed time.Time
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		t, err := time.Parse(layout, value)
		if err == nil {
			parsed = t
			break
		}
	}
	if parsed.IsZero() || parsed.Before(v0TimeFloor) {
		return nil
	}
	ms := parsed.UnixMilli()
	return &ms
}
