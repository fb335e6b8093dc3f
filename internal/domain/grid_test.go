package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaleGrid(t *testing.T) {
	tests := []struct {
		name        string
		lat, lon    float64
		expectedLat int
		expectedLon int
	}{
		{"positive", 12.345, 12.345, 12345, 12345},
		{"zero lat", 0, 12.345, 0, 12345},
		{"negative", -10.0, -11.0, -10000, -11000},
		{"rounds half away from zero", 1.2345, -1.2345, 1235, -1235},
		{"sub-grid precision collapses", 51.50012, -0.09988, 51500, -100},
		{"extremes", 90, -180, 90000, -180000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := ScaleGrid(tt.lat, tt.lon)
			assert.Equal(t, tt.expectedLat, g.Lat)
			assert.Equal(t, tt.expectedLon, g.Lon)
		})
	}
}

func TestScaleGrid_Deterministic(t *testing.T) {
	// Coordinates that round to the same scaled integers produce identical
	// grid coordinates.
	a := ScaleGrid(12.3451, -0.0004)
	b := ScaleGrid(12.3449, 0.0004)
	assert.Equal(t, a, b)
}

func TestGridCoord_Float(t *testing.T) {
	lat, lon := ScaleGrid(12.345, -11.0).Float()
	assert.InDelta(t, 12.345, lat, 0.0005)
	assert.InDelta(t, -11.0, lon, 0.0005)
}

func TestShardFor(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		expected ShardID
	}{
		{"north east", 48.8, 2.3, ShardNorthEast},
		{"north west", 45.5, -73.5, ShardNorthWest},
		{"south east", -33.8, 151.2, ShardSouthEast},
		{"south west", -34.6, -58.4, ShardSouthWest},
		{"equator counts as north", 0, 10, ShardNorthEast},
		{"prime meridian counts as east", -10, 0, ShardSouthEast},
		{"origin", 0, 0, ShardNorthEast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShardFor(tt.lat, tt.lon))
		})
	}
}

func TestShardFor_Total(t *testing.T) {
	// Every coordinate in range maps to exactly one member of the closed set.
	members := map[ShardID]bool{}
	for _, s := range Shards {
		members[s] = true
	}
	for lat := -90.0; lat <= 90.0; lat += 7.5 {
		for lon := -180.0; lon <= 180.0; lon += 7.5 {
			assert.True(t, members[ShardFor(lat, lon)], "lat=%f lon=%f", lat, lon)
		}
	}
}
