package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/openstationmap/stationpipe/internal/config"
	"github.com/openstationmap/stationpipe/internal/gate"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes admitted report batches to the update_incoming topic.
// It implements gate.Queue.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Enqueue serializes and publishes the batch in a single WriteMessages
// call. Durability is Kafka's concern; the gate never retries.
func (w *Writer) Enqueue(ctx context.Context, items []gate.Item) error {
	if len(items) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(items))
	for i := range items {
		msg, err := serializeToMessage(items[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a queue item into a Kafka message. The API
// key becomes the partition key so one submitter's reports stay ordered.
func serializeToMessage(item gate.Item) (kafkago.Message, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize queue item: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(item.APIKey),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(item.Source)},
		},
	}, nil
}
