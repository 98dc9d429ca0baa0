package testutil

import (
	"testing"

	"github.com/roach88/glyph/internal/receipt"
	"github.com/roach88/glyph/internal/schema"
	"github.com/roach88/glyph/internal/signature"
)

// TenantID is the tenant fixture receipts are issued for.
const TenantID = "xai-memphis-01"

// Signer returns the default stub signer used by every fixture.
func Signer() signature.Stub {
	return signature.NewStub("")
}

// Validator returns a validator with the default producer set.
func Validator(t testing.TB) *schema.Validator {
	t.Helper()
	v, err := schema.New(nil)
	if err != nil {
		t.Fatalf("schema.New() failed: %v", err)
	}
	return v
}

// Stamp stamps r with Signer.
func Stamp(t testing.TB, r receipt.Receipt) receipt.Receipt {
	t.Helper()
	stamped, err := receipt.Stamp(r, Signer())
	if err != nil {
		t.Fatalf("Stamp() failed: %v", err)
	}
	return stamped
}

// SwarmVote returns a stamped, valid swarm_vote receipt; n makes it unique.
func SwarmVote(t testing.TB, n int) receipt.Receipt {
	t.Helper()
	return Stamp(t, receipt.New(receipt.TypeSwarmVote, receipt.ProducerGrootSwarm, TenantID,
		Epoch.Unix()+int64(n), map[string]any{"vote": n}))
}

// BoreProgress returns a stamped, valid bore_progress receipt.
func BoreProgress(t testing.TB, meters float64) receipt.Receipt {
	t.Helper()
	return Stamp(t, receipt.New(receipt.TypeBoreProgress, receipt.ProducerRocketEngine, TenantID,
		Epoch.Unix(), map[string]any{
			"meters_advanced": meters,
			"cutter_head_rpm": 1200,
		}))
}

// SwarmVotes returns count distinct SwarmVote receipts.
func SwarmVotes(t testing.TB, count int) []receipt.Receipt {
	t.Helper()
	out := make([]receipt.Receipt, count)
	for i := range out {
		out[i] = SwarmVote(t, i)
	}
	return out
}
