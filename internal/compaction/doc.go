// Package compaction runs ledger compaction against the hot and cold stores
// and emits a signed compaction_complete receipt describing the run.
//
// A run has two independent phases. The hot phase counts receipt rows,
// reclaims archived rows and counts again. The cold phase estimates live
// bytes, compacts the whole range and estimates again. A store that fails
// contributes unknown (null) figures; when both fail the run aborts.
//
// The reduction percentage is the larger of the two stores' reductions. The
// health metric is compared with the death threshold: below it the run is
// marked death_triggered. The receipt is produced either way; callers read
// Result.DeathTriggered to decide their exit status.
package compaction
