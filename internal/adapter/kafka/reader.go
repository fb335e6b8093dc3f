package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/openstationmap/stationpipe/internal/config"
	"github.com/openstationmap/stationpipe/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Reader consumes submission envelopes from the source topic.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader        *kafkago.Reader
	logger        *slog.Logger
	flushInterval time.Duration
}

// NewReader creates a Kafka consumer for the configured source topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaSourceTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Reader{reader: r, logger: logger, flushInterval: cfg.BatchFlushInterval}
}

// ExtractBatch blocks for the first submission, then keeps fetching until
// the batch is full or the flush interval elapses. Offsets are committed
// by the caller through each submission's Commit callback, after the
// batch has been durably enqueued (at-least-once delivery).
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawSubmission, error) {
	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	batch := make([]domain.RawSubmission, 0, batchSize)
	batch = append(batch, mapMessageToRawSubmission(first, r.reader.CommitMessages))

	flushCtx, cancel := context.WithTimeout(ctx, r.flushInterval)
	defer cancel()

	for len(batch) < batchSize {
		msg, err := r.reader.FetchMessage(flushCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			r.logger.Warn("fetch during batch fill failed", "error", err)
			break
		}
		batch = append(batch, mapMessageToRawSubmission(msg, r.reader.CommitMessages))
	}

	return batch, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessageToRawSubmission converts a Kafka message into the transport
// agnostic envelope, wiring the offset commit back to the consumer group.
func mapMessageToRawSubmission(msg kafkago.Message, commit func(ctx context.Context, msgs ...kafkago.Message) error) domain.RawSubmission {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawSubmission{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Commit: func(ctx context.Context) error {
			return commit(ctx, msg)
		},
	}
}
