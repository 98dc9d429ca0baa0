// Package hashing is the single content-addressing primitive shared by every
// producer and consumer of receipts.
//
// All digests are BLAKE3-256. Receipt content hashes, Merkle leaves, Merkle
// parents, twin state hashes and stub signatures are all computed here so the
// hash function and its byte layout cannot drift between call sites.
package hashing

import (
	"encoding/hex"
	"errors"
	"fmt"

	"lukechampine.com/blake3"
)

// Size is the digest length in bytes.
const Size = 32

// HexSize is the length of a hex-encoded digest.
const HexSize = 2 * Size

// ErrMalformedDigest is returned when a hex string is not a 256-bit digest.
var ErrMalformedDigest = errors.New("hashing: malformed digest")

// Digest is a 256-bit BLAKE3 digest.
type Digest [Size]byte

// Sum returns the BLAKE3-256 digest of data.
func Sum(data []byte) Digest {
	return Digest(blake3.Sum256(data))
}

// SumParts hashes the concatenation of parts without building it in memory.
func SumParts(parts ...[]byte) Digest {
	h := blake3.New(Size, nil)
	for _, p := range parts {
		h.Write(p)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// Pair returns the parent digest of two children: BLAKE3(left || right) over
// the raw 32-byte values, never their hex form.
func Pair(left, right Digest) Digest {
	return SumParts(left[:], right[:])
}

// String returns the lowercase hex encoding.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseHex decodes a 64-character hex digest.
func ParseHex(s string) (Digest, error) {
	var d Digest
	if len(s) != HexSize {
		return d, fmt.Errorf("%w: want %d hex chars, got %d", ErrMalformedDigest, HexSize, len(s))
	}
	if _, err := hex.Decode(d[:], []byte(s)); err != nil {
		return d, fmt.Errorf("%w: %v", ErrMalformedDigest, err)
	}
	return d, nil
}

// IsLowerHex reports whether s is non-empty and consists only of 0-9a-f.
func IsLowerHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
