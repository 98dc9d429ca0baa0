package receipt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/glyph/internal/hashing"
	"github.com/roach88/glyph/internal/signature"
)

func sampleReceipt() Receipt {
	return New(TypeBoreProgress, ProducerRocketEngine, "xai-memphis-01", 1763000000, map[string]any{
		"meters_advanced": 10.5,
		"cutter_head_rpm": 1200,
	})
}

func TestContentHashIsHexDigest(t *testing.T) {
	h, err := ContentHash(sampleReceipt())
	require.NoError(t, err)
	assert.Len(t, h, hashing.HexSize)
	assert.True(t, hashing.IsLowerHex(h))

	canonical, err := Canonicalize(sampleReceipt())
	require.NoError(t, err)
	assert.Equal(t, hashing.Sum(canonical).String(), h)
}

func TestContentHashIgnoresVolatileFields(t *testing.T) {
	base := sampleReceipt()
	want, err := ContentHash(base)
	require.NoError(t, err)

	mutated := base.Clone()
	mutated[FieldContentHash] = "ffff"
	mutated[FieldSignature] = "not-a-signature"
	mutated[FieldReceiptID] = "receipt-whatever"

	got, err := ContentHash(mutated)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestContentHashSensitiveToContent(t *testing.T) {
	base := sampleReceipt()
	want, err := ContentHash(base)
	require.NoError(t, err)

	fields := []string{FieldTenantID, FieldEmittedBy, "meters_advanced"}
	for _, f := range fields {
		t.Run(f, func(t *testing.T) {
			mutated := base.Clone()
			mutated[f] = "changed"
			got, err := ContentHash(mutated)
			require.NoError(t, err)
			assert.NotEqual(t, want, got)
		})
	}
}

func TestDeriveID(t *testing.T) {
	h := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	assert.Equal(t, "receipt-0123456789abcdef0123456789abcdef", DeriveID(h))
	assert.Equal(t, "receipt-abc", DeriveID("abc"))
}

func TestStamp(t *testing.T) {
	signer := signature.NewStub("")
	r := sampleReceipt()

	stamped, err := Stamp(r, signer)
	require.NoError(t, err)

	hash, err := ContentHash(r)
	require.NoError(t, err)
	assert.Equal(t, hash, stamped.StoredHash())
	assert.Equal(t, DeriveID(hash), stamped.ID())
	assert.True(t, VerifySignature(stamped, signer))
	assert.NoError(t, VerifyIntegrity(stamped))

	// The input is left untouched.
	assert.NotContains(t, r, FieldContentHash)
	assert.NotContains(t, r, FieldSignature)
	assert.NotContains(t, r, FieldReceiptID)
}

func TestStampReplacesStaleVolatileValues(t *testing.T) {
	signer := signature.NewStub("")
	r := sampleReceipt()
	r[FieldContentHash] = "stale"
	r[FieldSignature] = "stale"

	stamped, err := Stamp(r, signer)
	require.NoError(t, err)
	assert.NoError(t, VerifyIntegrity(stamped))
	assert.True(t, VerifySignature(stamped, signer))
}

func TestStampIsIdempotent(t *testing.T) {
	signer := signature.NewStub("")
	once, err := Stamp(sampleReceipt(), signer)
	require.NoError(t, err)
	twice, err := Stamp(once, signer)
	require.NoError(t, err)

	a, err := Marshal(once)
	require.NoError(t, err)
	b, err := Marshal(twice)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestVerifyIntegrity(t *testing.T) {
	signer := signature.NewStub("")
	stamped, err := Stamp(sampleReceipt(), signer)
	require.NoError(t, err)

	t.Run("unstamped", func(t *testing.T) {
		assert.ErrorIs(t, VerifyIntegrity(sampleReceipt()), ErrUnstamped)
	})

	t.Run("tampered field", func(t *testing.T) {
		tampered := stamped.Clone()
		tampered["meters_advanced"] = json.Number("99")
		assert.ErrorIs(t, VerifyIntegrity(tampered), ErrHashMismatch)
	})

	t.Run("tampered nested value", func(t *testing.T) {
		withZone := sampleReceipt()
		withZone["zone"] = map[string]any{"depth": 3}
		s, err := Stamp(withZone, signer)
		require.NoError(t, err)

		s["zone"].(map[string]any)["depth"] = 4
		assert.ErrorIs(t, VerifyIntegrity(s), ErrHashMismatch)
		assert.Equal(t, 3, withZone["zone"].(map[string]any)["depth"])
	})
}

func TestVerifySignatureRejectsForeignTenant(t *testing.T) {
	signer := signature.NewStub("")
	stamped, err := Stamp(sampleReceipt(), signer)
	require.NoError(t, err)

	moved := stamped.Clone()
	moved[FieldTenantID] = "other-tenant"
	assert.False(t, VerifySignature(moved, signer))

	delete(moved, FieldContentHash)
	assert.False(t, VerifySignature(moved, signer))
}
