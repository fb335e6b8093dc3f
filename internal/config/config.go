package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// maxBatchSize bounds memory use per extract cycle.
const maxBatchSize = 1000

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Canonical station store.
	MySQLDSN string

	// Object storage for export uploads.
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool

	// Export configuration.
	DatasetTag   string
	ExportHeader bool

	// API key sampling-config cache.
	KeyCacheSize int

	// OCID delta dump download configuration.
	OCIDBaseURL string
	OCIDAPIKey  string
	OCIDTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	flushInterval, err := parseDuration("BATCH_FLUSH_INTERVAL", "1s")
	if err != nil {
		return nil, err
	}

	ocidTimeout, err := parseDuration("OCID_TIMEOUT", "5m")
	if err != nil {
		return nil, err
	}

	batchSize, err := parsePositiveInt("BATCH_SIZE", 50)
	if err != nil || batchSize > maxBatchSize {
		return nil, errors.New("invalid BATCH_SIZE")
	}

	keyCacheSize, err := parsePositiveInt("KEY_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "submissions"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "update_incoming"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "stationpipe"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		MySQLDSN: os.Getenv("MYSQL_DSN"),

		S3Endpoint:  envOrDefault("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "station-exports"),
		S3UseSSL:    os.Getenv("S3_USE_SSL") == "true",

		DatasetTag:   envOrDefault("EXPORT_DATASET_TAG", "OSM"),
		ExportHeader: envOrDefault("EXPORT_HEADER", "true") == "true",

		KeyCacheSize: keyCacheSize,

		OCIDBaseURL: envOrDefault("OCID_BASE_URL", "https://opencellid.org/ocid/downloads"),
		OCIDAPIKey:  os.Getenv("OCID_API_KEY"),
		OCIDTimeout: ocidTimeout,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
