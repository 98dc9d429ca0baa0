package twin

import (
	"errors"
	"fmt"
	"math"

	"github.com/roach88/glyph/internal/receipt"
)

// Context names what a healthy comparison stands for; it picks the receipt
// type emitted when the twin is in sync.
type Context string

const (
	ContextEntanglement Context = "entanglement"
	ContextOrbital      Context = "orbital"
	ContextRecovery     Context = "recovery"
	ContextRedLoop      Context = "red_loop"
)

var ErrUnknownContext = errors.New("twin: unknown context")

var healthyTypes = map[Context]receipt.Type{
	ContextEntanglement: receipt.TypeEntanglementPrediction,
	ContextOrbital:      receipt.TypeOrbitalTelemetry,
	ContextRecovery:     receipt.TypePhaseTransition,
	ContextRedLoop:      receipt.TypeCompactionComplete,
}

// HealthyType returns the receipt type for an in-sync comparison.
func (c Context) HealthyType() (receipt.Type, error) {
	t, ok := healthyTypes[c]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownContext, string(c))
	}
	return t, nil
}

// Classify returns anomaly_detected for a forked twin, else the context's
// healthy type.
func (r Report) Classify(ctx Context) (receipt.Type, error) {
	healthy, err := ctx.HealthyType()
	if err != nil {
		return "", err
	}
	if r.Anomalous {
		return receipt.TypeAnomalyDetected, nil
	}
	return healthy, nil
}

// Receipt builds the unstamped receipt for r. extra carries type-specific
// fields (for example satellite_id for orbital telemetry); report fields win
// over extra on conflict.
func (r Report) Receipt(ctx Context, tenantID string, timestamp int64, extra map[string]any) (receipt.Receipt, error) {
	typ, err := r.Classify(ctx)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any, len(extra)+8)
	for k, v := range extra {
		fields[k] = v
	}
	if typ == receipt.TypeEntanglementPrediction {
		if _, ok := fields["correlation_score"]; !ok {
			fields["correlation_score"] = round6(1 - r.WorstDivergence)
		}
		if _, ok := fields["predicted_negation_ms"]; !ok {
			fields["predicted_negation_ms"] = 0
		}
	}
	fields["asset_id"] = r.AssetID
	fields["root_real"] = r.RootReal.String()
	fields["root_twin"] = r.RootTwin.String()
	fields["roots_match"] = r.RootsMatch()
	fields["observations"] = r.Observations
	fields["divergence_percent"] = round6(r.WorstDivergence * 100)
	fields["mean_divergence_percent"] = round6(r.MeanDivergence * 100)
	fields["threshold_percent"] = round6(r.Threshold * 100)

	return receipt.New(typ, receipt.ProducerDigitalTwin, tenantID, timestamp, fields), nil
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
