// Command genmock generates deterministic submission fixtures in all three
// wire formats, plus the normalized reports each one produces. It runs the
// fixtures through the actual schema package so the output matches real
// pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -count 24
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/openstationmap/stationpipe/internal/domain"
	"github.com/openstationmap/stationpipe/internal/schema"
)

var baseTime = time.Date(2026, time.August, 27, 10, 0, 0, 0, time.UTC)

// site anchors generated reports so every shard gets coverage.
type site struct {
	lat, lon float64
	mcc, mnc int64
	radio    string
}

var sites = []site{
	{lat: 51.5, lon: -0.12, mcc: 234, mnc: 10, radio: "gsm"},   // nw
	{lat: 48.85, lon: 2.35, mcc: 208, mnc: 1, radio: "lte"},    // ne
	{lat: -33.87, lon: 151.2, mcc: 505, mnc: 2, radio: "umts"}, // se
	{lat: -23.55, lon: -46.63, mcc: 724, mnc: 5, radio: "lte"}, // sw
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory for fixture files")
	count := flag.Int("count", 24, "number of items per wire format")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	// Fix the clock so generated timestamps are reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(baseTime))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewPCG(7, 11))
	items := generateItems(rng, *count)

	versions := []struct {
		version  schema.Version
		name     string
		envelope any
	}{
		{schema.V0, "v0", v0Envelope{Items: toV0(items)}},
		{schema.V1, "v1", v1Envelope{Items: toV1(items)}},
		{schema.V2, "v2", v2Envelope{Items: toV2(items)}},
	}

	var allReports []domain.Report
	for _, v := range versions {
		payload, err := json.MarshalIndent(v.envelope, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s envelope: %w", v.name, err)
		}

		submissionPath := filepath.Join(*outDir, "submission_"+v.name+".json")
		if err := writeFile(submissionPath, payload); err != nil {
			return fmt.Errorf("writing %s fixture: %w", v.name, err)
		}
		log.Printf("wrote submission fixture: %s", submissionPath)

		// Run the real parser so the normalized fixture cannot drift from
		// pipeline behavior.
		reports, err := schema.Parse(v.version, payload)
		if err != nil {
			return fmt.Errorf("parse %s fixture: %w", v.name, err)
		}
		log.Printf("%s: %d items, %d reports", v.name, *count, len(reports))

		normalized, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s reports: %w", v.name, err)
		}
		reportPath := filepath.Join(*outDir, "reports_"+v.name+".json")
		if err := writeFile(reportPath, normalized); err != nil {
			return fmt.Errorf("writing %s reports: %w", v.name, err)
		}
		allReports = append(allReports, reports...)
	}

	printStats(allReports)
	return nil
}

// mockItem is the version-independent shape the wire converters fan out
// from.
type mockItem struct {
	lat, lon  float64
	accuracy  float64
	timestamp int64

	radio    string
	mcc, mnc int64
	lac, cid int64
	signal   int64

	wifiMAC    string
	wifiSignal int64

	blueMAC string // empty for most items
}

func generateItems(rng *rand.Rand, count int) []mockItem {
	items := make([]mockItem, 0, count)
	for i := 0; i < count; i++ {
		s := sites[i%len(sites)]
		item := mockItem{
			lat:        s.lat + rng.Float64()*0.05,
			lon:        s.lon + rng.Float64()*0.05,
			accuracy:   float64(5 + rng.IntN(50)),
			timestamp:  domain.Clock().Now().Add(-time.Duration(rng.IntN(3600)) * time.Second).UnixMilli(),
			radio:      s.radio,
			mcc:        s.mcc,
			mnc:        s.mnc,
			lac:        int64(100 + i),
			cid:        int64(10000 + i*7),
			signal:     int64(-110 + rng.IntN(60)),
			wifiMAC:    fmt.Sprintf("01:23:45:67:%02x:%02x", i%256, (i*31)%256),
			wifiSignal: int64(-90 + rng.IntN(50)),
		}
		if i%3 == 0 {
			item.blueMAC = fmt.Sprintf("aa:bb:cc:dd:%02x:%02x", i%256, (i*17)%256)
		}
		items = append(items, item)
	}
	return items
}

// ── Wire format shapes ──
//
// These mirror the accepted submission formats; the schema package owns the
// parsing side, genmock only needs to produce well-formed payloads.

type v0Envelope struct {
	Items []v0Item `json:"items"`
}

type v0Item struct {
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Accuracy float64  `json:"accuracy"`
	Time     string   `json:"time"`
	Radio    string   `json:"radio"`
	Cell     []v0Cell `json:"cell"`
	Wifi     []v0Wifi `json:"wifi"`
	Blue     []v0Blue `json:"blue,omitempty"`
}

type v0Cell struct {
	MCC    int64 `json:"mcc"`
	MNC    int64 `json:"mnc"`
	LAC    int64 `json:"lac"`
	CID    int64 `json:"cid"`
	Signal int64 `json:"signal"`
}

type v0Wifi struct {
	Key    string `json:"key"`
	Signal int64  `json:"signal"`
}

type v0Blue struct {
	Key string `json:"key"`
}

type v1Envelope struct {
	Items []v1Item `json:"items"`
}

type v1Item struct {
	Latitude         float64    `json:"latitude"`
	Longitude        float64    `json:"longitude"`
	Accuracy         float64    `json:"accuracy"`
	Timestamp        int64      `json:"timestamp"`
	CellTowers       []wireCell `json:"cellTowers"`
	WifiAccessPoints []wireWifi `json:"wifiAccessPoints"`
	BluetoothBeacons []wireBlue `json:"bluetoothBeacons,omitempty"`
}

type v2Envelope struct {
	Items []v2Item `json:"items"`
}

type v2Item struct {
	Position         v2Position `json:"position"`
	Timestamp        int64      `json:"timestamp"`
	CellTowers       []wireCell `json:"cellTowers"`
	WifiAccessPoints []wireWifi `json:"wifiAccessPoints"`
	BluetoothBeacons []wireBlue `json:"bluetoothBeacons,omitempty"`
}

type v2Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Source    string  `json:"source"`
}

type wireCell struct {
	RadioType         string `json:"radioType"`
	MobileCountryCode int64  `json:"mobileCountryCode"`
	MobileNetworkCode int64  `json:"mobileNetworkCode"`
	LocationAreaCode  int64  `json:"locationAreaCode"`
	CellID            int64  `json:"cellId"`
	SignalStrength    int64  `json:"signalStrength"`
}

type wireWifi struct {
	MACAddress     string `json:"macAddress"`
	SignalStrength int64  `json:"signalStrength"`
}

type wireBlue struct {
	MACAddress string `json:"macAddress"`
}

func toV0(items []mockItem) []v0Item {
	out := make([]v0Item, 0, len(items))
	for _, m := range items {
		it := v0Item{
			Lat:      m.lat,
			Lon:      m.lon,
			Accuracy: m.accuracy,
			Time:     time.UnixMilli(m.timestamp).UTC().Format(time.RFC3339),
			Radio:    m.radio,
			Cell:     []v0Cell{{MCC: m.mcc, MNC: m.mnc, LAC: m.lac, CID: m.cid, Signal: m.signal}},
			Wifi:     []v0Wifi{{Key: m.wifiMAC, Signal: m.wifiSignal}},
		}
		if m.blueMAC != "" {
			it.Blue = []v0Blue{{Key: m.blueMAC}}
		}
		out = append(out, it)
	}
	return out
}

func toV1(items []mockItem) []v1Item {
	out := make([]v1Item, 0, len(items))
	for _, m := range items {
		it := v1Item{
			Latitude:         m.lat,
			Longitude:        m.lon,
			Accuracy:         m.accuracy,
			Timestamp:        m.timestamp,
			CellTowers:       []wireCell{cellOf(m)},
			WifiAccessPoints: []wireWifi{{MACAddress: m.wifiMAC, SignalStrength: m.wifiSignal}},
		}
		if m.blueMAC != "" {
			it.BluetoothBeacons = []wireBlue{{MACAddress: m.blueMAC}}
		}
		out = append(out, it)
	}
	return out
}

func toV2(items []mockItem) []v2Item {
	out := make([]v2Item, 0, len(items))
	for _, m := range items {
		it := v2Item{
			Position: v2Position{
				Latitude:  m.lat,
				Longitude: m.lon,
				Accuracy:  m.accuracy,
				Source:    "gnss",
			},
			Timestamp:        m.timestamp,
			CellTowers:       []wireCell{cellOf(m)},
			WifiAccessPoints: []wireWifi{{MACAddress: m.wifiMAC, SignalStrength: m.wifiSignal}},
		}
		if m.blueMAC != "" {
			it.BluetoothBeacons = []wireBlue{{MACAddress: m.blueMAC}}
		}
		out = append(out, it)
	}
	return out
}

func cellOf(m mockItem) wireCell {
	return wireCell{
		RadioType:         m.radio,
		MobileCountryCode: m.mcc,
		MobileNetworkCode: m.mnc,
		LocationAreaCode:  m.lac,
		CellID:            m.cid,
		SignalStrength:    m.signal,
	}
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(reports []domain.Report) {
	shardCounts := map[domain.ShardID]int{}
	radioCounts := map[string]int{}
	var cells, wifis, blues int

	for i := range reports {
		r := &reports[i]
		if r.Position != nil && r.Position.Latitude != nil && r.Position.Longitude != nil {
			shardCounts[domain.ShardFor(*r.Position.Latitude, *r.Position.Longitude)]++
		}
		cells += len(r.CellTowers)
		wifis += len(r.WifiAccessPoints)
		blues += len(r.BluetoothBeacons)
		for _, c := range r.CellTowers {
			radioCounts[c.RadioType]++
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total reports: %d\n", len(reports))
	fmt.Printf("Entries: cells=%d, wifi=%d, bluetooth=%d\n", cells, wifis, blues)
	fmt.Printf("By shard: ")
	for _, s := range domain.Shards {
		fmt.Printf("%s=%d ", s, shardCounts[s])
	}
	fmt.Println()
	fmt.Printf("Cell radios: gsm=%d, wcdma=%d, lte=%d\n",
		radioCounts["gsm"], radioCounts["wcdma"], radioCounts["lte"])
}
