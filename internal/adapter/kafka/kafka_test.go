package kafka

import (
	"context"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstationmap/stationpipe/internal/domain"
	"github.com/openstationmap/stationpipe/internal/gate"
)

func TestMapMessageToRawSubmission(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("key-1"),
		Value:     []byte(`{"items":[]}`),
		Topic:     "submissions",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: domain.HeaderAPIKey, Value: []byte("test")},
			{Key: domain.HeaderSchemaVersion, Value: []byte("v2")},
		},
	}

	committed := 0
	raw := mapMessageToRawSubmission(msg, func(_ context.Context, msgs ...kafkago.Message) error {
		committed += len(msgs)
		return nil
	})

	assert.Equal(t, []byte("key-1"), raw.Key)
	assert.JSONEq(t, `{"items":[]}`, string(raw.Value))
	assert.Equal(t, "submissions", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "test", raw.APIKey())
	assert.Equal(t, "v2", raw.SchemaVersion())

	require.NoError(t, raw.Commit(context.Background()))
	assert.Equal(t, 1, committed)
}

func TestSerializeToMessage(t *testing.T) {
	mac := "01:23:45:67:89:ab"
	item := gate.Item{
		APIKey: "test",
		Report: domain.Report{
			WifiAccessPoints: []domain.WifiAccessPoint{{MACAddress: mac}},
		},
		Source: "gnss",
	}

	msg, err := serializeToMessage(item)
	require.NoError(t, err)

	assert.Equal(t, []byte("test"), msg.Key)
	assert.Contains(t, string(msg.Value), `"api_key":"test"`)
	assert.Contains(t, string(msg.Value), mac)
	assert.Contains(t, string(msg.Value), `"source":"gnss"`)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "source", msg.Headers[0].Key)
	assert.Equal(t, []byte("gnss"), msg.Headers[0].Value)
}
