package twin

import (
	"errors"
	"fmt"
	"math"

	"github.com/roach88/glyph/internal/hashing"
	"github.com/roach88/glyph/internal/merkle"
)

// DefaultThreshold is the highest worst-case divergence still considered in sync.
const DefaultThreshold = 0.05

// Input errors returned by Compare.
var (
	ErrEmptySequence  = errors.New("twin: empty state sequence")
	ErrLengthMismatch = errors.New("twin: real and twin sequences differ in length")
	ErrPairMismatch   = errors.New("twin: paired observations disagree on asset or epoch")
	ErrEpochOrder     = errors.New("twin: epochs must strictly increase")
	ErrNonFinite      = errors.New("twin: measurement is not finite")
)

// Detector classifies real/twin sequences against a divergence threshold.
type Detector struct {
	Threshold float64
}

// NewDetector returns a Detector; a non-positive threshold selects
// DefaultThreshold.
func NewDetector(threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{Threshold: threshold}
}

// Report is the outcome of one comparison.
type Report struct {
	AssetID      string
	Observations int
	Threshold    float64

	// WorstDivergence is the maximum over all pairs and fields.
	WorstDivergence float64
	WorstEpoch      uint64
	WorstField      string

	// MeanDivergence averages the per-observation worst field.
	MeanDivergence float64

	RootReal hashing.Digest
	RootTwin hashing.Digest

	Anomalous bool
}

// RootsMatch reports whether both sequences hashed to the same root.
func (r Report) RootsMatch() bool {
	return r.RootReal == r.RootTwin
}

// Compare scores twin against real. Both sequences must be non-empty, of
// equal length, pair up by asset and epoch, and have increasing epochs.
func (d *Detector) Compare(real, twin []AssetState) (Report, error) {
	if err := checkSequences(real, twin); err != nil {
		return Report{}, err
	}

	threshold := d.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	report := Report{
		AssetID:      real[0].AssetID,
		Observations: len(real),
		Threshold:    threshold,
		WorstEpoch:   real[0].Epoch,
		WorstField:   measurementNames[0],
	}

	var sum float64
	for i := range real {
		rm, tm := real[i].measurements(), twin[i].measurements()
		var worst float64
		for f := range rm {
			dv := Divergence(rm[f], tm[f])
			if dv > worst {
				worst = dv
			}
			if dv > report.WorstDivergence {
				report.WorstDivergence = dv
				report.WorstEpoch = real[i].Epoch
				report.WorstField = measurementNames[f]
			}
		}
		sum += worst
	}
	report.MeanDivergence = sum / float64(len(real))
	report.Anomalous = report.WorstDivergence > threshold

	var err error
	if report.RootReal, err = merkle.Root(HashStates(real)); err != nil {
		return Report{}, err
	}
	if report.RootTwin, err = merkle.Root(HashStates(twin)); err != nil {
		return Report{}, err
	}
	return report, nil
}

func checkSequences(real, twin []AssetState) error {
	if len(real) == 0 || len(twin) == 0 {
		return ErrEmptySequence
	}
	if len(real) != len(twin) {
		return fmt.Errorf("%w: %d real, %d twin", ErrLengthMismatch, len(real), len(twin))
	}
	for i := range real {
		r, t := real[i], twin[i]
		if r.AssetID != t.AssetID || r.Epoch != t.Epoch {
			return fmt.Errorf("%w: observation %d", ErrPairMismatch, i)
		}
		if i > 0 && r.Epoch <= real[i-1].Epoch {
			return fmt.Errorf("%w: observation %d has epoch %d after %d", ErrEpochOrder, i, r.Epoch, real[i-1].Epoch)
		}
		if r.AssetID != real[0].AssetID {
			return fmt.Errorf("%w: observation %d names asset %q, expected %q", ErrPairMismatch, i, r.AssetID, real[0].AssetID)
		}
		rm, tm := r.measurements(), t.measurements()
		for f := range rm {
			if !finite(rm[f]) || !finite(tm[f]) {
				return fmt.Errorf("%w: observation %d %s", ErrNonFinite, i, measurementNames[f])
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
