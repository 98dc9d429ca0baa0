// Package receipt defines the receipt record, its canonical byte form, and
// content-addressed identity.
//
// A receipt is a JSON object. Its identity is the BLAKE3-256 digest of its
// canonical form, which excludes the three volatile fields content_hash,
// signature and receipt_id. Those fields are written once by Stamp and never
// mutated in place: any content change requires a fresh Stamp.
//
// Key constraints:
//   - Canonical form sorts object keys by UTF-16 code units (RFC 8785 order)
//     after NFC-normalizing them; array order is preserved
//   - Numbers decoded from JSON are kept as json.Number so their text is
//     hashed exactly as received
//   - Volatile fields are removed at the top level only; nested objects are
//     content
//   - Marshal and Canonicalize share one encoder, so a marshaled receipt
//     re-parses to the same content hash
package receipt
