package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstationmap/stationpipe/internal/domain"
	"github.com/openstationmap/stationpipe/internal/gate"
	"github.com/openstationmap/stationpipe/internal/observability"
	"github.com/openstationmap/stationpipe/internal/store"
)

// --- mocks ---

type mockExtractor struct {
	batch  []domain.RawSubmission
	served atomic.Bool
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawSubmission, error) {
	if m.served.CompareAndSwap(false, true) {
		return m.batch, nil
	}
	// Block until context cancelled to simulate waiting for messages.
	<-ctx.Done()
	return nil, ctx.Err()
}

type mockQueue struct {
	batches [][]gate.Item
	err     error
}

func (m *mockQueue) Enqueue(_ context.Context, items []gate.Item) error {
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, items)
	return nil
}

type mockKeys struct {
	configs map[string]gate.APIKey
	err     error
}

func (m *mockKeys) APIKey(_ context.Context, key string) (gate.APIKey, error) {
	if m.err != nil {
		return gate.APIKey{}, m.err
	}
	cfg, ok := m.configs[key]
	if !ok {
		return gate.APIKey{}, store.ErrUnknownKey
	}
	return cfg, nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func newTestAdmitter(keys KeyResolver, queue gate.Queue, draw float64) *Admitter {
	a := NewAdmitter(keys, gate.New(queue), slog.Default())
	a.draw = func() float64 { return draw }
	return a
}

// --- helpers ---

func makeSubmission(version, apiKey, payload string) domain.RawSubmission {
	return domain.RawSubmission{
		Key:   []byte(apiKey),
		Value: []byte(payload),
		Headers: map[string]string{
			domain.HeaderAPIKey:        apiKey,
			domain.HeaderSchemaVersion: version,
		},
	}
}

const wifiPayload = `{"items": [{"wifiAccessPoints": [{"macAddress": "01:23:45:67:89:ab"}]}]}`

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	committed := false
	raw := makeSubmission("v2", "test", wifiPayload)
	raw.Commit = func(_ context.Context) error {
		committed = true
		return nil
	}

	queue := &mockQueue{}
	keys := &mockKeys{configs: map[string]gate.APIKey{
		"test": {Key: "test", SampleRate: 1},
	}}

	p := New(&mockExtractor{batch: []domain.RawSubmission{raw}},
		newTestAdmitter(keys, queue, 0.5), slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Len(t, queue.batches, 1)
	assert.Equal(t, "test", queue.batches[0][0].APIKey)
	assert.True(t, committed)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	queue := &mockQueue{}
	p := New(&mockExtractor{}, newTestAdmitter(&mockKeys{}, queue, 0.5),
		slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, queue.batches)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_MalformedSkippedAndCommitted(t *testing.T) {
	committed := false
	raw := makeSubmission("v2", "test", `{"no_items": true}`)
	raw.Commit = func(_ context.Context) error {
		committed = true
		return nil
	}

	queue := &mockQueue{}
	p := New(&mockExtractor{batch: []domain.RawSubmission{raw}},
		newTestAdmitter(&mockKeys{}, queue, 0.5), slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, queue.batches)
	assert.True(t, committed, "client faults are skipped, not redelivered")
}

func TestPipeline_Run_SampledOutCommits(t *testing.T) {
	committed := false
	raw := makeSubmission("v2", "throttled", wifiPayload)
	raw.Commit = func(_ context.Context) error {
		committed = true
		return nil
	}

	queue := &mockQueue{}
	keys := &mockKeys{configs: map[string]gate.APIKey{
		"throttled": {Key: "throttled", SampleRate: 0},
	}}

	p := New(&mockExtractor{batch: []domain.RawSubmission{raw}},
		newTestAdmitter(keys, queue, 0.5), slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, queue.batches, "sampled out, nothing enqueued")
	assert.True(t, committed, "sampling out is a silent accept")
}

func TestPipeline_Run_QueueOutageDoesNotCommit(t *testing.T) {
	committed := false
	raw := makeSubmission("v2", "test", wifiPayload)
	raw.Commit = func(_ context.Context) error {
		committed = true
		return nil
	}

	queue := &mockQueue{err: errors.New("broker down")}
	p := New(&mockExtractor{batch: []domain.RawSubmission{raw}},
		newTestAdmitter(&mockKeys{}, queue, 0.5), slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.False(t, committed, "offset must be redelivered after an outage")
}

func TestAdmitter_UnknownKeyStoredAtFullRate(t *testing.T) {
	queue := &mockQueue{}
	a := newTestAdmitter(&mockKeys{}, queue, 0.99)

	decision, err := a.Admit(context.Background(), makeSubmission("v2", "unprovisioned", wifiPayload))
	require.NoError(t, err)
	assert.True(t, decision.Sampled)
	require.Len(t, queue.batches, 1)
	assert.Equal(t, "unprovisioned", queue.batches[0][0].APIKey)
}

func TestAdmitter_AnonymousSubmission(t *testing.T) {
	queue := &mockQueue{}
	a := newTestAdmitter(&mockKeys{}, queue, 0.5)

	raw := makeSubmission("v2", "", wifiPayload)
	decision, err := a.Admit(context.Background(), raw)
	require.NoError(t, err)
	assert.True(t, decision.Sampled)
	assert.Empty(t, queue.batches[0][0].APIKey)
}

func TestAdmitter_ResolverOutageIsNotClientFault(t *testing.T) {
	a := newTestAdmitter(&mockKeys{err: errors.New("store unavailable")}, &mockQueue{}, 0.5)

	_, err := a.Admit(context.Background(), makeSubmission("v2", "test", wifiPayload))
	require.Error(t, err)
	assert.False(t, isClientFault(err))
}

func TestAdmitter_BadVersionIsClientFault(t *testing.T) {
	a := newTestAdmitter(&mockKeys{}, &mockQueue{}, 0.5)

	_, err := a.Admit(context.Background(), makeSubmission("v9", "test", wifiPayload))
	require.Error(t, err)
	assert.True(t, isClientFault(err))
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		header  string
		want    int
		wantErr bool
	}{
		{"v0", 0, false},
		{"v1", 1, false},
		{"v2", 2, false},
		{"", 2, false}, // current format when absent
		{"v9", 0, true},
	}
	for _, tt := range tests {
		v, err := parseVersion(tt.header)
		if tt.wantErr {
			assert.Error(t, err, tt.header)
			continue
		}
		require.NoError(t, err, tt.header)
		assert.Equal(t, tt.want, int(v), tt.header)
	}
}
