package receipt

import (
	"errors"
	"fmt"

	"github.com/roach88/glyph/internal/hashing"
	"github.com/roach88/glyph/internal/signature"
)

var (
	// ErrUnstamped is returned when a receipt has no content_hash to check.
	ErrUnstamped = errors.New("receipt: not stamped")

	// ErrHashMismatch is returned when the stored content_hash does not match
	// the recomputed one.
	ErrHashMismatch = errors.New("receipt: content hash mismatch")
)

// ContentHash returns the lowercase hex BLAKE3-256 digest of r's canonical
// form. Volatile fields never influence it.
func ContentHash(r Receipt) (string, error) {
	canonical, err := Canonicalize(r)
	if err != nil {
		return "", fmt.Errorf("content hash: %w", err)
	}
	return hashing.Sum(canonical).String(), nil
}

// DeriveID returns the receipt_id for a content hash: "receipt-" followed by
// its first 32 hex characters.
func DeriveID(contentHash string) string {
	if len(contentHash) < 32 {
		return IDPrefix + contentHash
	}
	return IDPrefix + contentHash[:32]
}

// Stamp returns a copy of r carrying content_hash, receipt_id and signature.
// Any existing volatile values on r are ignored and replaced; r is unchanged.
func Stamp(r Receipt, signer signature.Signer) (Receipt, error) {
	hash, err := ContentHash(r)
	if err != nil {
		return nil, fmt.Errorf("stamp: %w", err)
	}
	sig, err := signer.Sign(hash, r.TenantID())
	if err != nil {
		return nil, fmt.Errorf("stamp: sign: %w", err)
	}

	out := r.Clone()
	out[FieldContentHash] = hash
	out[FieldReceiptID] = DeriveID(hash)
	out[FieldSignature] = sig
	return out, nil
}

// VerifyIntegrity recomputes the content hash and compares it with the stored
// value.
func VerifyIntegrity(r Receipt) error {
	stored := r.StoredHash()
	if stored == "" {
		return ErrUnstamped
	}
	recomputed, err := ContentHash(r)
	if err != nil {
		return err
	}
	if stored != recomputed {
		return fmt.Errorf("%w: stored %s, computed %s", ErrHashMismatch, stored, recomputed)
	}
	return nil
}

// VerifySignature checks the stored signature against the stored content hash
// and tenant.
func VerifySignature(r Receipt, signer signature.Signer) bool {
	hash := r.StoredHash()
	if hash == "" {
		return false
	}
	return signer.Verify(hash, r.TenantID(), r.Signature())
}
