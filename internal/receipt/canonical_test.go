package receipt

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goldenBore() Receipt {
	return Receipt{
		"version":         "1.0",
		"receipt_id":      "receipt-00000000000000000000000000000000",
		"timestamp":       json.Number("1763000000"),
		"tenant_id":       "xai-memphis-01",
		"receipt_type":    "bore_progress",
		"emitted_by":      "rocket-engine",
		"meters_advanced": json.Number("10.5"),
		"cutter_head_rpm": json.Number("1200"),
		"content_hash":    "",
		"signature":       "",
		"notes":           "a<b & \"c\"\n",
		"zone": map[string]any{
			"z": true,
			"a": nil,
			"m": []any{json.Number("1"), "two", false},
		},
	}
}

func TestCanonicalizeGolden(t *testing.T) {
	got, err := Canonicalize(goldenBore())
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "bore_progress_canonical", got)
}

func TestCanonicalizeExcludesVolatileFields(t *testing.T) {
	got, err := Canonicalize(goldenBore())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(got, &decoded))
	assert.NotContains(t, decoded, FieldContentHash)
	assert.NotContains(t, decoded, FieldSignature)
	assert.NotContains(t, decoded, FieldReceiptID)
	assert.Contains(t, decoded, FieldTenantID)
}

func TestCanonicalizeKeepsNestedVolatileNames(t *testing.T) {
	r := Receipt{"payload": map[string]any{"signature": "nested"}}

	got, err := Canonicalize(r)
	require.NoError(t, err)
	assert.Equal(t, `{"payload":{"signature":"nested"}}`, string(got))
}

func TestCanonicalizeKeyOrderIndependent(t *testing.T) {
	// Build the same object through JSON texts with permuted key order.
	a, err := Parse([]byte(`{"b":1,"a":{"y":[3,2,1],"x":null},"c":"s"}`))
	require.NoError(t, err)
	b, err := Parse([]byte(`{"c":"s","a":{"x":null,"y":[3,2,1]},"b":1}`))
	require.NoError(t, err)

	ca, err := Canonicalize(a)
	require.NoError(t, err)
	cb, err := Canonicalize(b)
	require.NoError(t, err)

	assert.Equal(t, string(ca), string(cb))
	assert.Equal(t, `{"a":{"x":null,"y":[3,2,1]},"b":1,"c":"s"}`, string(ca))
}

func TestCanonicalizePreservesNumberText(t *testing.T) {
	r, err := Parse([]byte(`{"a":10.0,"b":1e3,"c":-0.5,"d":12345678901234567890}`))
	require.NoError(t, err)

	got, err := Canonicalize(r)
	require.NoError(t, err)
	assert.Equal(t, `{"a":10.0,"b":1e3,"c":-0.5,"d":12345678901234567890}`, string(got))
}

func TestCanonicalizeGoValues(t *testing.T) {
	r := Receipt{
		"f":   10.25,
		"i":   int64(7),
		"n":   3,
		"s":   []string{"x", "y"},
		"arr": []float64{0.5, 2},
	}

	got, err := Canonicalize(r)
	require.NoError(t, err)
	assert.Equal(t, `{"arr":[0.5,2],"f":10.25,"i":7,"n":3,"s":["x","y"]}`, string(got))
}

func TestCanonicalizeStringEscaping(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"html not escaped", "<a>&", `"<a>&"`},
		{"quote and backslash", `"\`, `"\"\\"`},
		{"control chars", "\x01\t", `"\u0001\t"`},
		{"line separator literal", "\u2028", "\"\u2028\""},
		{"unicode literal", "h\u00e9llo", "\"h\u00e9llo\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(Receipt{"k": tt.input})
			require.NoError(t, err)
			assert.Equal(t, `{"k":`+tt.want+`}`, string(got))
		})
	}
}

func TestCanonicalizeUTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D.. which sort before U+FB01 in
	// UTF-16, while UTF-8 byte order puts it after.
	r := Receipt{"\ufb01": 1, "\U0001F600": 2}

	got, err := Canonicalize(r)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\ufb01\":1}", string(got))
}

func TestCanonicalizeNFCKeys(t *testing.T) {
	// "e" + combining acute and precomposed "é" are the same key after NFC.
	decomposed := Receipt{"e\u0301": 1}
	composed := Receipt{"\u00e9": 1}

	a, err := Canonicalize(decomposed)
	require.NoError(t, err)
	b, err := Canonicalize(composed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))

	_, err = Canonicalize(Receipt{"\u00e9": 1, "e\u0301": 2})
	assert.Error(t, err, "keys colliding after NFC must be rejected")
}

func TestCanonicalizeRejectsUnencodable(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"nan", math.NaN()},
		{"inf", math.Inf(1)},
		{"bad number", json.Number("01")},
		{"struct", struct{}{}},
		{"invalid utf8", string([]byte{0xff})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Canonicalize(Receipt{"v": tt.value})
			assert.Error(t, err)
		})
	}
}

func TestIsJSONNumber(t *testing.T) {
	valid := []string{"0", "-0", "10", "10.5", "1e3", "1E-3", "-2.5e+10"}
	invalid := []string{"", "-", "01", "1.", ".5", "1e", "abc", "1 "}

	for _, s := range valid {
		assert.True(t, isJSONNumber(s), s)
	}
	for _, s := range invalid {
		assert.False(t, isJSONNumber(s), s)
	}
}

func TestMarshalRoundTripPreservesHash(t *testing.T) {
	r := goldenBore()
	r["content_hash"] = "deadbeef"

	data, err := Marshal(r)
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)

	h1, err := ContentHash(r)
	require.NoError(t, err)
	h2, err := ContentHash(parsed)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Equal(t, "deadbeef", parsed.StoredHash())
}

func TestMarshalJSONUsesCanonicalEncoder(t *testing.T) {
	r := Receipt{"b": 1, "a": "<"}

	data, err := json.Marshal(map[string]any{"r": r})
	require.NoError(t, err)
	assert.JSONEq(t, `{"r":{"a":"<","b":1}}`, string(data))
}
