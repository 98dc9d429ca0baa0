package twin

import (
	"fmt"
	"math"

	"github.com/roach88/glyph/internal/hashing"
)

// AssetState is one observation of an asset at an epoch.
type AssetState struct {
	AssetID  string  `json:"asset_id"`
	Epoch    uint64  `json:"epoch"`
	Position float64 `json:"position"`
	Health   float64 `json:"health"`
}

// measurements lists the compared fields in a fixed order.
func (s AssetState) measurements() [2]float64 {
	return [2]float64{s.Position, s.Health}
}

var measurementNames = [2]string{"position", "health"}

// Divergence is the relative difference of b from a, capped at 1.
// Two zeros diverge by 0; a zero reference with a non-zero twin diverges by 1.
func Divergence(a, b float64) float64 {
	switch {
	case a == 0 && b == 0:
		return 0
	case a == 0:
		return 1
	default:
		return math.Min(math.Abs(a-b)/math.Abs(a), 1)
	}
}

// Canonical returns the hashed text form of s. Measurements use six fixed
// decimals so equal values always produce equal bytes.
func (s AssetState) Canonical() string {
	return fmt.Sprintf("asset_id=%s|epoch=%d|position=%.6f|health=%.6f",
		s.AssetID, s.Epoch, s.Position, s.Health)
}

// HashState returns the Merkle leaf for s.
func HashState(s AssetState) hashing.Digest {
	return hashing.Sum([]byte(s.Canonical()))
}

// HashStates hashes a sequence in order.
func HashStates(states []AssetState) []hashing.Digest {
	out := make([]hashing.Digest, len(states))
	for i, s := range states {
		out[i] = HashState(s)
	}
	return out
}
