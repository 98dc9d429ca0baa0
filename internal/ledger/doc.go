// Package ledger is the receipt pipeline on top of the hot and cold stores.
//
// A receipt moves through four stages:
//
//	Submit   integrity check, signature check, schema validation, hot store write
//	Seal     unbatched receipts become one Merkle batch with a signed root
//	Prove    inclusion proof for a sealed receipt against its batch root
//	Archive  sealed receipts are copied to the cold store and marked archived
//
// Leaves are persisted per batch, so proofs remain available after the
// compaction gate reclaims archived rows from the hot store.
//
// Ledger methods hold the store lock for the whole stage, which serializes
// them against each other and against compaction runs on the same store.
package ledger
