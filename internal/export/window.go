package export

import (
	"time"
)

// Kind selects the window shape of an export run.
type Kind string

const (
	// KindDiff exports rows modified in the most recently completed hour.
	KindDiff Kind = "diff"
	// KindFull exports every row up to the most recently completed day.
	KindFull Kind = "full"
)

// Window bounds one export run. Boundaries are truncated to the window
// unit so re-runs within the same unit select the same rows and produce
// the same upload keys. A zero Start means unbounded.
type Window struct {
	Kind  Kind
	Start time.Time
	End   time.Time
}

// NewWindow computes the window for a run starting at now.
func NewWindow(kind Kind, now time.Time) Window {
	if kind == KindDiff {
		end := now.UTC().Truncate(time.Hour)
		return Window{Kind: kind, Start: end.Add(-time.Hour), End: end}
	}
	return Window{Kind: KindFull, End: now.UTC().Truncate(24 * time.Hour)}
}

// WindowSince overrides the lower bound of a diff window, for catch-up
// runs after an outage.
func WindowSince(since, now time.Time) Window {
	return Window{Kind: KindDiff, Start: since.UTC(), End: now.UTC().Truncate(time.Hour)}
}

// Stamp renders the window end for embedding in upload keys,
// e.g. "2026-08-27T150000".
func (w Window) Stamp() string {
	return w.End.Format("2006-01-02T150405")
}
