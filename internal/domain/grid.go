package domain

import "math"

// GridScale is the quantization factor for map-tile aggregation: coordinates
// are kept to 1/1000 of a degree.
const GridScale = 1000

// GridCoord is a quantized (lat, lon) pair used as an aggregation key.
// Many raw coordinates collapse to one GridCoord; the precision loss is the
// point.
type GridCoord struct {
	Lat int
	Lon int
}

// ScaleGrid quantizes a coordinate to the grid. Values are multiplied by
// GridScale and rounded half away from zero, so e.g. 12.3455 and 12.3454
// both land on 12345 while -0.0005 lands on -1.
func ScaleGrid(lat, lon float64) GridCoord {
	return GridCoord{
		Lat: int(math.Round(lat * GridScale)),
		Lon: int(math.Round(lon * GridScale)),
	}
}

// Float returns the grid coordinate as degrees again, at grid precision.
func (g GridCoord) Float() (lat, lon float64) {
	return float64(g.Lat) / GridScale, float64(g.Lon) / GridScale
}

// ShardID names one of the fixed geographic partitions.
type ShardID string

// The closed shard set. Every coordinate maps to exactly one of these.
const (
	ShardNorthEast ShardID = "ne"
	ShardNorthWest ShardID = "nw"
	ShardSouthEast ShardID = "se"
	ShardSouthWest ShardID = "sw"
)

// Shards lists all shard identifiers in stable order.
var Shards = []ShardID{ShardNorthEast, ShardNorthWest, ShardSouthEast, ShardSouthWest}

// ShardFor assigns a coordinate to its geographic shard. Zero counts as
// positive on both axes, so the function is total: the equator and the prime
// meridian belong to the northern/eastern shards.
func ShardFor(lat, lon float64) ShardID {
	north := lat >= 0
	east := lon >= 0
	switch {
	case north && east:
		return ShardNorthEast
	case north:
		return ShardNorthWest
	case east:
		return ShardSouthEast
	default:
		return ShardSouthWest
	}
}
