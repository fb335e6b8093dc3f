// Package gate applies the submission admission policy: reject empty
// payloads, sample per API key, and hand accepted batches to the outbound
// report queue.
package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/openstationmap/stationpipe/internal/domain"
)

var (
	// ErrEmptySubmission is a client fault: the normalized report set
	// carried no observations at all.
	ErrEmptySubmission = errors.New("empty submission")

	// ErrQueueUnavailable is a service fault: the outbound queue could not
	// accept the batch. The caller decides whether to retry the whole
	// submission; the gate never retries.
	ErrQueueUnavailable = errors.New("report queue unavailable")
)

// APIKey is the resolved sampling configuration for one submission key.
// Only the sampling decision is consumed here; quota bookkeeping lives with
// the key store.
type APIKey struct {
	Key        string  // valid key identity, empty for anonymous submissions
	SampleRate float64 // fraction of submissions to persist, in [0, 1]
	DailyLimit int     // daily usage ceiling, 0 means unlimited
}

// Item is one queued observation with its submission metadata.
type Item struct {
	APIKey string        `json:"api_key"`
	Report domain.Report `json:"report"`
	Source string        `json:"source"`
}

// Queue is the outbound report queue feeding the aggregation consumer.
// Enqueue is fire and forget; durability is the queue's concern.
type Queue interface {
	Enqueue(ctx context.Context, items []Item) error
}

// Decision records what the gate did with a submission.
type Decision struct {
	Sampled bool // false means a silent no-op accept
	Items   int  // batch items enqueued when sampled
}

// Gate admits normalized submissions into the pipeline.
type Gate struct {
	queue Queue
}

func New(queue Queue) *Gate {
	return &Gate{queue: queue}
}

// Admit decides one submission. The Bernoulli draw is supplied by the
// caller so the gate stays deterministic under test: the submission is
// stored iff draw < rate, with a rate of 1 always storing. Sampled-out
// submissions return a nil error by design — quota state must not leak to
// clients.
func (g *Gate) Admit(ctx context.Context, reports []domain.Report, key APIKey, draw float64) (Decision, error) {
	if len(reports) == 0 {
		return Decision{}, ErrEmptySubmission
	}

	if !(key.SampleRate >= 1 || draw < key.SampleRate) {
		return Decision{Sampled: false}, nil
	}

	items := make([]Item, 0, len(reports))
	for _, report := range reports {
		items = append(items, Item{
			APIKey: key.Key,
			Report: report,
			Source: report.SourceTag(),
		})
	}

	if err := g.queue.Enqueue(ctx, items); err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	return Decision{Sampled: true, Items: len(items)}, nil
}
