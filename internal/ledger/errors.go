package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrNothingToSeal is returned by Seal when no receipt is pending.
	ErrNothingToSeal = errors.New("ledger: nothing to seal")

	// ErrNotBatched is returned by Prove for a receipt that exists but has
	// not been sealed yet.
	ErrNotBatched = errors.New("ledger: receipt not batched")

	// ErrBadSignature is the rejection cause for a signature that does not
	// verify against the stored content hash and tenant.
	ErrBadSignature = errors.New("ledger: signature does not verify")

	// ErrProofMismatch is returned when an inclusion proof does not lead to
	// the claimed root.
	ErrProofMismatch = errors.New("ledger: proof does not match root")

	// ErrBadRootSignature is returned when a proof's root signature does not
	// verify for the ledger tenant.
	ErrBadRootSignature = errors.New("ledger: root signature does not verify")
)

// Rejection is a receipt refused by Submit. Other receipts are unaffected.
type Rejection struct {
	ReceiptID string
	Err       error
}

func (r *Rejection) Error() string {
	id := r.ReceiptID
	if id == "" {
		id = "<no receipt_id>"
	}
	return fmt.Sprintf("rejected %s: %v", id, r.Err)
}

func (r *Rejection) Unwrap() error {
	return r.Err
}
