package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseV0_CellRadioAlias(t *testing.T) {
	payload := `{"items": [{
		"lat": 51.5, "lon": -0.1,
		"cell": [{"radio": "UMTS", "mcc": 302, "mnc": 2, "lac": 4, "cid": 190}]
	}]}`

	reports, err := Parse(V0, []byte(payload))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Len(t, reports[0].CellTowers, 1)
	assert.Equal(t, "wcdma", reports[0].CellTowers[0].RadioType)
}

func TestParseV0_InvalidRadioDropsField(t *testing.T) {
	payload := `{"items": [{
		"lat": 51.5, "lon": -0.1,
		"cell": [{"radio": "foo", "mcc": 302, "mnc": 2, "lac": 4, "cid": 190}]
	}]}`

	reports, err := Parse(V0, []byte(payload))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Len(t, reports[0].CellTowers, 1)
	assert.Empty(t, reports[0].CellTowers[0].RadioType, "invalid radio drops the field, keeps the entry")
}

func TestParseV0_ItemRadioFallback(t *testing.T) {
	payload := `{"items": [{
		"lat": 51.5, "lon": -0.1, "radio": "gsm",
		"cell": [
			{"mcc": 302, "mnc": 2, "lac": 4, "cid": 190},
			{"radio": "lte", "mcc": 302, "mnc": 2, "lac": 4, "cid": 191}
		]
	}]}`

	reports, err := Parse(V0, []byte(payload))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Len(t, reports[0].CellTowers, 2)
	assert.Equal(t, "gsm", reports[0].CellTowers[0].RadioType, "item radio fills the gap")
	assert.Equal(t, "lte", reports[0].CellTowers[1].RadioType, "per-cell radio wins")
}

func TestParseV0_FullCell(t *testing.T) {
	payload := `{"items": [{
		"lat": 51.5, "lon": -0.1,
		"accuracy": 10.6, "altitude": 123.1, "altitude_accuracy": 7.0,
		"heading": 45.2, "pressure": 1020.23, "speed": 3.6, "source": "gnss",
		"cell": [{
			"radio": "umts", "mcc": 302, "mnc": 2, "lac": 4, "cid": 190,
			"age": 1000, "asu": 3, "psc": 7, "serving": 1, "signal": -85, "ta": 2
		}]
	}]}`

	reports, err := Parse(V0, []byte(payload))
	require.NoError(t, err)
	require.Len(t, reports, 1)

	report := reports[0]
	require.NotNil(t, report.Position)
	assert.Equal(t, 51.5, *report.Position.Latitude)
	assert.Equal(t, -0.1, *report.Position.Longitude)
	assert.Equal(t, 10.6, *report.Position.Accuracy)
	assert.Equal(t, 123.1, *report.Position.Altitude)
	assert.Equal(t, 7.0, *report.Position.AltitudeAccuracy)
	assert.Equal(t, 45.2, *report.Position.Heading)
	assert.Equal(t, 1020.23, *report.Position.Pressure)
	assert.Equal(t, 3.6, *report.Position.Speed)
	assert.Equal(t, "gnss", report.Position.Source)

	require.Len(t, report.CellTowers, 1)
	cell := report.CellTowers[0]
	assert.Equal(t, "wcdma", cell.RadioType)
	assert.Equal(t, int64(302), *cell.MobileCountryCode)
	assert.Equal(t, int64(2), *cell.MobileNetworkCode)
	assert.Equal(t, int64(4), *cell.LocationAreaCode)
	assert.Equal(t, int64(190), *cell.CellID)
	assert.Equal(t, int64(1000), *cell.Age)
	assert.Equal(t, int64(3), *cell.ASU)
	assert.Equal(t, int64(7), *cell.PrimaryScramblingCode)
	assert.Equal(t, int64(1), *cell.Serving)
	assert.Equal(t, int64(-85), *cell.SignalStrength)
	assert.Equal(t, int64(2), *cell.TimingAdvance)
}

func TestParseV0_WifiAndBlue(t *testing.T) {
	payload := `{"items": [{
		"lat": 51.5, "lon": -0.1,
		"wifi": [{"key": "01:23:45:67:89:ab", "age": 2500, "channel": 1, "frequency": 2437,
			"signal": -70, "signalToNoiseRatio": 5, "ssid": "my-wifi"}],
		"blue": [{"key": "ab:cd:ef:01:23:45", "age": 3000, "name": "beacon", "signal": -101}]
	}]}`

	reports, err := Parse(V0, []byte(payload))
	require.NoError(t, err)
	require.Len(t, reports, 1)

	require.Len(t, reports[0].WifiAccessPoints, 1)
	wifi := reports[0].WifiAccessPoints[0]
	assert.Equal(t, "01:23:45:67:89:ab", wifi.MACAddress)
	assert.Equal(t, int64(2500), *wifi.Age)
	assert.Equal(t, int64(1), *wifi.Channel)
	assert.Equal(t, int64(2437), *wifi.Frequency)
	assert.Equal(t, int64(-70), *wifi.SignalStrength)
	assert.Equal(t, int64(5), *wifi.SignalToNoiseRatio)
	assert.Equal(t, "my-wifi", wifi.SSID)

	require.Len(t, reports[0].BluetoothBeacons, 1)
	blue := reports[0].BluetoothBeacons[0]
	assert.Equal(t, "ab:cd:ef:01:23:45", blue.MACAddress)
	assert.Equal(t, int64(3000), *blue.Age)
	assert.Equal(t, "beacon", blue.Name)
	assert.Equal(t, int64(-101), *blue.SignalStrength)
}

func TestParseV0_EmptyEntriesDropped(t *testing.T) {
	t.Run("empty wifi entry drops item", func(t *testing.T) {
		payload := `{"items": [{"lat": 51.5, "lon": -0.1, "wifi": [{}]}]}`
		reports, err := Parse(V0, []byte(payload))
		require.NoError(t, err)
		assert.Empty(t, reports)
	})

	t.Run("empty blue entry drops item", func(t *testing.T) {
		payload := `{"items": [{"lat": 51.5, "lon": -0.1, "blue": [{}]}]}`
		reports, err := Parse(V0, []byte(payload))
		require.NoError(t, err)
		assert.Empty(t, reports)
	})

	t.Run("empty cell entry drops item", func(t *testing.T) {
		payload := `{"items": [{"lat": 51.5, "lon": -0.1, "cell": [{}]}]}`
		reports, err := Parse(V0, []byte(payload))
		require.NoError(t, err)
		assert.Empty(t, reports)
	})

	t.Run("minimal wifi key keeps item", func(t *testing.T) {
		payload := `{"items": [{"lat": 51.5, "lon": -0.1, "wifi": [{"key": "ab"}]}]}`
		reports, err := Parse(V0, []byte(payload))
		require.NoError(t, err)
		assert.Len(t, reports, 1)
	})
}

func TestParseV0_Time(t *testing.T) {
	t.Run("datetime string", func(t *testing.T) {
		payload := `{"items": [{"time": "2016-04-07T03:33:20", "wifi": [{"key": "ab"}]}]}`
		reports, err := Parse(V0, []byte(payload))
		require.NoError(t, err)
		require.Len(t, reports, 1)
		require.NotNil(t, reports[0].Timestamp)
		assert.Equal(t, int64(146*1e10), *reports[0].Timestamp)
	})

	t.Run("date string", func(t *testing.T) {
		payload := `{"items": [{"time": "2016-04-07", "wifi": [{"key": "ab"}]}]}`
		reports, err := Parse(V0, []byte(payload))
		require.NoError(t, err)
		require.Len(t, reports, 1)
		require.NotNil(t, reports[0].Timestamp)
	})

	t.Run("implausibly old date discarded", func(t *testing.T) {
		payload := `{"items": [{"time": "1710-02-28", "wifi": [{"key": "ab"}]}]}`
		reports, err := Parse(V0, []byte(payload))
		require.NoError(t, err)
		require.Len(t, reports, 1)
		assert.Nil(t, reports[0].Timestamp)
	})

	t.Run("garbage discarded", func(t *testing.T) {
		payload := `{"items": [{"time": "not-a-date", "wifi": [{"key": "ab"}]}]}`
		reports, err := Parse(V0, []byte(payload))
		require.NoError(t, err)
		require.Len(t, reports, 1)
		assert.Nil(t, reports[0].Timestamp)
	})
}

func TestParseV0_PositionOnlyItemDropped(t *testing.T) {
	// A position with no observations is useless to the aggregator.
	payload := `{"items": [{"lat": 51.5, "lon": -0.1}]}`
	reports, err := Parse(V0, []byte(payload))
	require.NoError(t, err)
	assert.Empty(t, reports)
}
