package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/glyph/internal/hashing"
	"github.com/roach88/glyph/internal/merkle"
	"github.com/roach88/glyph/internal/store"
)

// InclusionProof shows that a receipt's content hash is leaf LeafIndex of a
// sealed batch.
type InclusionProof struct {
	ReceiptID     string         `json:"receipt_id"`
	BatchID       string         `json:"batch_id"`
	LeafIndex     int            `json:"leaf_index"`
	LeafCount     int            `json:"leaf_count"`
	Leaf          hashing.Digest `json:"leaf"`
	Root          hashing.Digest `json:"root"`
	RootSignature string         `json:"root_signature"`
	Steps         merkle.Proof   `json:"steps"`
}

// Prove builds the inclusion proof for receiptID. It fails with
// ErrNotBatched for a stored but unsealed receipt and with store.ErrNotFound
// for an unknown one.
func (l *Ledger) Prove(ctx context.Context, receiptID string) (InclusionProof, error) {
	l.store.Lock()
	defer l.store.Unlock()

	batchID, index, err := l.store.LeafLocation(ctx, receiptID)
	if errors.Is(err, store.ErrNotFound) {
		if _, gerr := l.store.GetReceipt(ctx, receiptID); gerr == nil {
			return InclusionProof{}, fmt.Errorf("prove %s: %w", receiptID, ErrNotBatched)
		}
		return InclusionProof{}, fmt.Errorf("prove: %w", err)
	}
	if err != nil {
		return InclusionProof{}, fmt.Errorf("prove: %w", err)
	}

	batch, err := l.store.GetBatch(ctx, batchID)
	if err != nil {
		return InclusionProof{}, fmt.Errorf("prove: %w", err)
	}
	stored, err := l.store.BatchLeaves(ctx, batchID)
	if err != nil {
		return InclusionProof{}, fmt.Errorf("prove: %w", err)
	}
	hexes := make([]string, len(stored))
	for i, leaf := range stored {
		hexes[i] = leaf.ContentHash
	}
	digests, err := merkle.LeavesFromHex(hexes)
	if err != nil {
		return InclusionProof{}, fmt.Errorf("prove: batch %s: %w", batchID, err)
	}

	root, steps, err := merkle.Build(digests, index)
	if err != nil {
		return InclusionProof{}, fmt.Errorf("prove: %w", err)
	}
	if root.String() != batch.Root {
		return InclusionProof{}, fmt.Errorf("prove: batch %s leaves hash to %s, sealed root %s: %w",
			batchID, root, batch.Root, ErrProofMismatch)
	}

	return InclusionProof{
		ReceiptID:     receiptID,
		BatchID:       batchID,
		LeafIndex:     index,
		LeafCount:     batch.LeafCount,
		Leaf:          digests[index],
		Root:          root,
		RootSignature: batch.RootSignature,
		Steps:         steps,
	}, nil
}

// VerifyInclusion recomputes the root from the proof's leaf and steps.
// It needs nothing but the proof itself.
func VerifyInclusion(p InclusionProof) error {
	got, err := merkle.Verify(p.Leaf, p.Steps)
	if err != nil {
		return fmt.Errorf("verify inclusion: %w", err)
	}
	if got != p.Root {
		return fmt.Errorf("verify inclusion: computed %s, claimed %s: %w", got, p.Root, ErrProofMismatch)
	}
	return nil
}

// VerifyProof checks inclusion and that the root was signed for the ledger
// tenant.
func (l *Ledger) VerifyProof(p InclusionProof) error {
	if err := VerifyInclusion(p); err != nil {
		return err
	}
	if !l.signer.Verify(p.Root.String(), l.tenantID, p.RootSignature) {
		return ErrBadRootSignature
	}
	return nil
}
