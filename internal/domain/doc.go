// Package domain models crowd-sourced radio-signal observation data.
//
// # Data Source
//
// Observations are submitted by client devices as batched reports: a device
// position plus the cell towers, Wi-Fi access points, and Bluetooth beacons
// visible at that moment. Submissions arrive in three historical wire formats
// (see the schema package) that all converge on the canonical Report type
// defined here.
//
// # Conventions
//
// Radio types:
//
//	"gsm", "wcdma", and "lte" are the canonical values. The legacy alias
//	"umts" maps to "wcdma". Anything else is invalid and the field is
//	dropped rather than failing the report, matching the tolerance of the
//	oldest submission API.
//
// Optional fields:
//
//	Every optional leaf is a pointer; nil is the one and only "unknown"
//	sentinel, so consumers never distinguish missing from present beyond a
//	single nil check. The position source tag is the exception: it defaults
//	to "gnss" when a report omits it.
//
// Timestamps:
//
//	Unix epoch milliseconds throughout, except the station CSV exchange
//	format whose created/updated columns use epoch seconds (OCID
//	compatibility).
//
// # Grid and Shards
//
// Map-tile aggregation quantizes coordinates to a 1/1000-degree grid
// ([ScaleGrid]). Stations are partitioned into four geographic shards by
// coordinate sign ([ShardFor]); the shard function is pure so export runs
// over the same data are reproducible.
package domain
