// Package store is the hot ledger store: a SQLite database holding stamped
// receipts, sealed Merkle batches and their leaves.
//
// # Tables
//
//   - receipts: one row per accepted receipt, body stored in canonical
//     wire form, keyed by receipt_id and content_hash
//   - batches: sealed Merkle roots with their signatures
//   - batch_leaves: the ordered leaf list of each batch
//
// Receipt rows are removed only by Reclaim, and only after they have been
// archived to the cold store. batch_leaves rows are never removed, so an
// inclusion proof can be rebuilt for any sealed receipt.
//
// All listing queries order by seq ASC.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Store implements sync.Locker. The lock is not taken by Store methods; it
// is held by callers for a whole mutating workflow (submit, seal, archive,
// compaction) so those workflows never interleave on one store.
package store
