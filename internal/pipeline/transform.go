package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openstationmap/stationpipe/internal/domain"
	"github.com/openstationmap/stationpipe/internal/gate"
	"github.com/openstationmap/stationpipe/internal/schema"
	"github.com/openstationmap/stationpipe/internal/store"
)

// errBadSchemaVersion marks submissions whose version header names no
// known wire format.
var errBadSchemaVersion = errors.New("unknown schema version")

// Admitter normalizes one raw submission and runs it through the
// sampling gate.
type Admitter struct {
	keys   KeyResolver
	gate   *gate.Gate
	logger *slog.Logger
	draw   func() float64
}

// NewAdmitter wires the key resolver and the gate. The sampling draw uses
// the process random source; tests substitute a fixed one.
func NewAdmitter(keys KeyResolver, g *gate.Gate, logger *slog.Logger) *Admitter {
	return &Admitter{
		keys:   keys,
		gate:   g,
		logger: logger,
		draw:   defaultDraw,
	}
}

// Admit parses, normalizes, and gates one submission. Client faults
// (bad version, parse errors, empty submissions) come back as errors that
// satisfy isClientFault; anything else is a dependency failure the caller
// should retry.
func (a *Admitter) Admit(ctx context.Context, raw domain.RawSubmission) (gate.Decision, error) {
	version, err := parseVersion(raw.SchemaVersion())
	if err != nil {
		return gate.Decision{}, err
	}

	reports, err := schema.Parse(version, raw.Value)
	if err != nil {
		return gate.Decision{}, err
	}

	key, err := a.resolveKey(ctx, raw.APIKey())
	if err != nil {
		return gate.Decision{}, fmt.Errorf("resolve api key: %w", err)
	}

	return a.gate.Admit(ctx, reports, key, a.draw())
}

// resolveKey looks up the sampling config. Unknown keys are admitted at
// full sample rate rather than rejected; key provisioning lags behind
// client rollouts and dropping those reports loses data permanently.
func (a *Admitter) resolveKey(ctx context.Context, key string) (gate.APIKey, error) {
	if key == "" {
		return gate.APIKey{SampleRate: 1}, nil
	}
	cfg, err := a.keys.APIKey(ctx, key)
	if errors.Is(err, store.ErrUnknownKey) {
		a.logger.Debug("unknown api key, storing at full rate", "api_key", key)
		return gate.APIKey{Key: key, SampleRate: 1}, nil
	}
	if err != nil {
		return gate.APIKey{}, err
	}
	return cfg, nil
}

// parseVersion maps the schema_version header onto a wire format. An
// absent header means the current format.
func parseVersion(v string) (schema.Version, error) {
	switch v {
	case "v0":
		return schema.V0, nil
	case "v1":
		return schema.V1, nil
	case "v2", "":
		return schema.V2, nil
	}
	return 0, fmt.Errorf("%w: %q", errBadSchemaVersion, v)
}

// isClientFault reports whether err was caused by the submission itself
// rather than by a dependency.
func isClientFault(err error) bool {
	var parseErr *schema.ParseError
	return errors.As(err, &parseErr) ||
		errors.Is(err, gate.ErrEmptySubmission) ||
		errors.Is(err, errBadSchemaVersion)
}
