package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewWindow_Diff(t *testing.T) {
	now := time.Date(2026, 8, 27, 15, 42, 19, 0, time.UTC)
	w := NewWindow(KindDiff, now)

	assert.Equal(t, KindDiff, w.Kind)
	assert.Equal(t, time.Date(2026, 8, 27, 14, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2026, 8, 27, 15, 0, 0, 0, time.UTC), w.End)
	assert.Equal(t, "2026-08-27T150000", w.Stamp())
}

func TestNewWindow_Full(t *testing.T) {
	now := time.Date(2026, 8, 27, 15, 42, 19, 0, time.UTC)
	w := NewWindow(KindFull, now)

	assert.Equal(t, KindFull, w.Kind)
	assert.True(t, w.Start.IsZero(), "full windows have no lower bound")
	assert.Equal(t, time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), w.End)
	assert.Equal(t, "2026-08-27T000000", w.Stamp())
}

// Re-runs within the same unit must compute the same window.
func TestNewWindow_IdempotentWithinUnit(t *testing.T) {
	early := time.Date(2026, 8, 27, 15, 0, 1, 0, time.UTC)
	late := time.Date(2026, 8, 27, 15, 59, 59, 0, time.UTC)
	assert.Equal(t, NewWindow(KindDiff, early), NewWindow(KindDiff, late))
}

func TestWindowSince(t *testing.T) {
	since := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 27, 15, 42, 0, 0, time.UTC)
	w := WindowSince(since, now)

	assert.Equal(t, KindDiff, w.Kind)
	assert.Equal(t, since, w.Start)
	assert.Equal(t, time.Date(2026, 8, 27, 15, 0, 0, 0, time.UTC), w.End)
}
