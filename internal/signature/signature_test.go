package signature

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/glyph/internal/hashing"
)

const tenant = "xai-memphis-01"

func contentHash() string {
	return hashing.Sum([]byte("payload")).String()
}

func TestStubRoundTrip(t *testing.T) {
	s := NewStub("")
	h := contentHash()

	sig, err := s.Sign(h, tenant)
	require.NoError(t, err)

	assert.Len(t, sig, 64)
	assert.True(t, hashing.IsLowerHex(sig))
	assert.True(t, s.Verify(h, tenant, sig))
}

func TestStubFlippedCharacterFails(t *testing.T) {
	s := NewStub("")
	h := contentHash()
	sig, err := s.Sign(h, tenant)
	require.NoError(t, err)

	flipped := []byte(sig)
	if flipped[10] == 'a' {
		flipped[10] = 'b'
	} else {
		flipped[10] = 'a'
	}

	assert.False(t, s.Verify(h, tenant, string(flipped)))
}

func TestStubBindsTenantAndHash(t *testing.T) {
	s := NewStub("")
	h := contentHash()
	sig, err := s.Sign(h, tenant)
	require.NoError(t, err)

	assert.False(t, s.Verify(h, "other-tenant", sig), "signature must bind tenant")
	assert.False(t, s.Verify(hashing.Sum([]byte("other")).String(), tenant, sig), "signature must bind content hash")
}

func TestStubMatchesDerivation(t *testing.T) {
	h := contentHash()
	want := hashing.Sum([]byte(h + tenant + DefaultTag)).String()

	got, err := NewStub("").Sign(h, tenant)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStubTagSeparatesSchemes(t *testing.T) {
	h := contentHash()
	a, _ := NewStub("").Sign(h, tenant)
	b, _ := NewStub("|other-scheme").Sign(h, tenant)

	assert.NotEqual(t, a, b)
	assert.False(t, NewStub("|other-scheme").Verify(h, tenant, a))
}

func TestStubRejectsMalformedSignatures(t *testing.T) {
	s := NewStub("")
	h := contentHash()
	sig, _ := s.Sign(h, tenant)

	assert.False(t, s.Verify(h, tenant, ""))
	assert.False(t, s.Verify(h, tenant, sig[:63]))
	assert.False(t, s.Verify(h, tenant, strings.ToUpper(sig)))
	assert.False(t, s.Verify(h, tenant, "kyber-signature-placeholder"))
}

func TestZeroValueStubUsesDefaultTag(t *testing.T) {
	h := contentHash()
	a, _ := Stub{}.Sign(h, tenant)
	b, _ := NewStub(DefaultTag).Sign(h, tenant)

	assert.Equal(t, a, b)
	assert.Equal(t, "blake3-stub|kyber-1024-stub", Stub{}.Algorithm())
}
