package ledger

import (
	"context"
	"fmt"

	"github.com/roach88/glyph/internal/hashing"
	"github.com/roach88/glyph/internal/merkle"
	"github.com/roach88/glyph/internal/store"
)

// Seal turns every unbatched receipt, in insertion order, into one batch.
// The Merkle root is computed over the receipts' content hashes and signed
// for the ledger tenant.
func (l *Ledger) Seal(ctx context.Context) (store.Batch, error) {
	l.store.Lock()
	defer l.store.Unlock()

	pending, err := l.store.ListUnbatched(ctx)
	if err != nil {
		return store.Batch{}, fmt.Errorf("seal: %w", err)
	}
	if len(pending) == 0 {
		return store.Batch{}, ErrNothingToSeal
	}

	digests := make([]hashing.Digest, len(pending))
	leaves := make([]store.Leaf, len(pending))
	for i, rec := range pending {
		d, err := hashing.ParseHex(rec.ContentHash)
		if err != nil {
			return store.Batch{}, fmt.Errorf("seal: receipt %s: %w", rec.ReceiptID, err)
		}
		digests[i] = d
		leaves[i] = store.Leaf{Index: i, ReceiptID: rec.ReceiptID, ContentHash: rec.ContentHash}
	}

	root, err := merkle.Root(digests)
	if err != nil {
		return store.Batch{}, fmt.Errorf("seal: %w", err)
	}
	sig, err := l.signer.Sign(root.String(), l.tenantID)
	if err != nil {
		return store.Batch{}, fmt.Errorf("seal: sign root: %w", err)
	}

	batch, err := l.store.SealBatch(ctx, store.Batch{
		ID:            l.batchIDs.Generate(),
		Root:          root.String(),
		RootSignature: sig,
		LeafCount:     len(leaves),
		SealedAt:      l.now().Unix(),
	}, leaves)
	if err != nil {
		return store.Batch{}, fmt.Errorf("seal: %w", err)
	}

	l.logger.Info("batch sealed",
		"batch_id", batch.ID,
		"seq", batch.Seq,
		"leaves", batch.LeafCount,
		"root", batch.Root,
	)
	return batch, nil
}
