package schema

import (
	"fmt"

	"github.com/openstationmap/stationpipe/internal/domain"
)

// Version 2 (/v2/geosubmit): the position moved under a nested object and
// gained the pressure and source fields. Entry lists are identical to v1.

type v2Envelope struct {
	Items *[]v2Item `json:"items"`
}

type v2Item struct {
	Position  *v2Position `json:"position"`
	Timestamp *int64      `json:"timestamp"`

	Carrier string `json:"carrier"`
	HomeMCC *int64 `json:"homeMobileCountryCode"`
	HomeMNC *int64 `json:"homeMobileNetworkCode"`

	CellTowers       []wireCell `json:"cellTowers"`
	WifiAccessPoints []wireWifi `json:"wifiAccessPoints"`
	BluetoothBeacons []wireBlue `json:"bluetoothBeacons"`
}

type v2Position struct {
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Accuracy         *float64 `json:"accuracy"`
	Age              *int64   `json:"age"`
	Altitude         *float64 `json:"altitude"`
	AltitudeAccuracy *float64 `json:"altitudeAccuracy"`
	Heading          *float64 `json:"heading"`
	Pressure         *float64 `json:"pressure"`
	Speed            *float64 `json:"speed"`
	Source           string   `json:"source"`
}

func parseV2(payload []byte) ([]domain.Report, error) {
	var env v2Envelope
	if err := decodeEnvelope(payload, &env); err != nil {
		return nil, err
	}
	if env.Items == nil {
		return nil, newParseError("items", "required")
	}

	reports := make([]domain.Report, 0, len(*env.Items))
	for i, item := range *env.Items {
		path := fmt.Sprintf("items[%d]", i)
		if err := validateTimestamp(path+".timestamp", item.Timestamp); err != nil {
			return nil, err
		}

		report := domain.Report{
			Carrier:               item.Carrier,
			HomeMobileCountryCode: item.HomeMCC,
			HomeMobileNetworkCode: item.HomeMNC,
			Timestamp:             item.Timestamp,
		}

		if item.Position != nil {
			p := item.Position
			if err := validateCoords(path+".position.latitude", path+".position.longitude", p.Latitude, p.Longitude); err != nil {
				return nil, err
			}
			pos := &domain.Position{
				Latitude:         p.Latitude,
				Longitude:        p.Longitude,
				Accuracy:         p.Accuracy,
				Age:              p.Age,
				Altitude:         p.Altitude,
				AltitudeAccuracy: p.AltitudeAccuracy,
				Heading:          p.Heading,
				Pressure:         p.Pressure,
				Speed:            p.Speed,
				Source:           p.Source,
			}
			if !positionEmpty(pos) {
				report.Position = pos
			}
		}

		convertEntries(&report, item.CellTowers, item.WifiAccessPoints, item.BluetoothBeacons)
		if report.Empty() {
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}
