// Package signature defines the pluggable signing capability bound to a
// receipt's content hash and tenant.
//
// The only implementation is Stub, a placeholder for a post-quantum scheme. It
// ties a signature to (content hash, tenant) so a receipt cannot be replayed
// under another tenant or with altered content, but anyone can compute it: it
// provides no non-repudiation. A real backend must implement Signer with the
// same binding.
package signature

import (
	"crypto/subtle"

	"github.com/roach88/glyph/internal/hashing"
)

// DefaultTag is the algorithm tag appended by the stub before hashing.
const DefaultTag = "|kyber-1024-stub"

// MinLength is the minimum accepted signature length in hex characters.
const MinLength = 64

// Signer produces and checks signatures over (content hash, tenant).
type Signer interface {
	// Algorithm names the scheme, for audit output.
	Algorithm() string
	Sign(contentHash, tenantID string) (string, error)
	Verify(contentHash, tenantID, sig string) bool
}

// Stub derives signature = hex(BLAKE3(contentHash || tenantID || Tag)).
type Stub struct {
	Tag string
}

var _ Signer = Stub{}

// NewStub returns a stub signer; an empty tag selects DefaultTag.
func NewStub(tag string) Stub {
	if tag == "" {
		tag = DefaultTag
	}
	return Stub{Tag: tag}
}

// Algorithm implements Signer.
func (s Stub) Algorithm() string {
	return "blake3-stub" + s.tag()
}

// Sign implements Signer. The content hash is bound as its hex text.
func (s Stub) Sign(contentHash, tenantID string) (string, error) {
	return s.derive(contentHash, tenantID), nil
}

// Verify implements Signer.
func (s Stub) Verify(contentHash, tenantID, sig string) bool {
	if len(sig) < MinLength || !hashing.IsLowerHex(sig) {
		return false
	}
	expected := s.derive(contentHash, tenantID)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) == 1
}

func (s Stub) derive(contentHash, tenantID string) string {
	return hashing.SumParts([]byte(contentHash), []byte(tenantID), []byte(s.tag())).String()
}

func (s Stub) tag() string {
	if s.Tag == "" {
		return DefaultTag
	}
	return s.Tag
}
