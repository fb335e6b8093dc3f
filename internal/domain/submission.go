package domain

import (
	"context"
	"time"
)

// Header keys on submission envelopes.
const (
	HeaderAPIKey        = "api_key"
	HeaderSchemaVersion = "schema_version"
)

// RawSubmission represents an unprocessed submission envelope from the
// source topic. The payload is the untouched JSON body; the API key and
// schema version travel as headers.
type RawSubmission struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// APIKey returns the submission's API key header, empty for anonymous
// submissions.
func (s RawSubmission) APIKey() string {
	return s.Headers[HeaderAPIKey]
}

// SchemaVersion returns the wire-format version header, e.g. "v2".
func (s RawSubmission) SchemaVersion() string {
	return s.Headers[HeaderSchemaVersion]
}
