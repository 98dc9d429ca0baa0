package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/glyph/internal/receipt"
	"github.com/roach88/glyph/internal/signature"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestReceipt returns a stamped swarm_vote receipt; n makes it unique.
func createTestReceipt(t *testing.T, n int) receipt.Receipt {
	t.Helper()
	r := receipt.New(receipt.TypeSwarmVote, receipt.ProducerGrootSwarm, "tenant-a", int64(1763000000+n), map[string]any{
		"vote": n,
	})
	stamped, err := receipt.Stamp(r, signature.NewStub(""))
	if err != nil {
		t.Fatalf("Stamp() failed: %v", err)
	}
	return stamped
}

// writeTestReceipts writes count receipts and returns them in write order.
func writeTestReceipts(t *testing.T, s *Store, count int) []receipt.Receipt {
	t.Helper()
	out := make([]receipt.Receipt, count)
	for i := range out {
		out[i] = createTestReceipt(t, i)
		if _, err := s.WriteReceipt(t.Context(), out[i]); err != nil {
			t.Fatalf("WriteReceipt(%d) failed: %v", i, err)
		}
	}
	return out
}

// leavesFor builds batch leaves for receipts in order.
func leavesFor(rs []receipt.Receipt) []Leaf {
	leaves := make([]Leaf, len(rs))
	for i, r := range rs {
		leaves[i] = Leaf{Index: i, ReceiptID: r.ID(), ContentHash: r.StoredHash()}
	}
	return leaves
}
