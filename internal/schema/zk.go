package schema

import "github.com/roach88/glyph/internal/receipt"

// VerifyZKStub is the placeholder proof check for zk_anomaly_proof receipts:
// the Groth16 components and public inputs must be non-empty arrays and an
// anomaly_hint must be present. No cryptographic verification happens here.
func VerifyZKStub(r receipt.Receipt) bool {
	if r.Type() != receipt.TypeZKAnomalyProof {
		return false
	}
	proof, ok := r["zk_proof"].(map[string]any)
	if !ok {
		return false
	}
	for _, k := range []string{"pi_a", "pi_b", "pi_c"} {
		if !nonEmptyArray(proof[k]) {
			return false
		}
	}
	if !nonEmptyArray(r["public_inputs"]) {
		return false
	}
	hint, _ := r.StringField("anomaly_hint")
	return hint != ""
}

func nonEmptyArray(v any) bool {
	arr, ok := v.([]any)
	return ok && len(arr) > 0
}
