// Package twin compares a real asset's state sequence with its digital twin.
//
// Each paired observation is scored field by field with a relative
// divergence; the worst score across the run decides whether the twin is in
// sync (at or below the threshold) or has forked (above it). Every
// observation is also hashed into a Merkle leaf so that the two sequences
// can be compared by root alone.
//
// Typical use:
//
//	scenario, err := twin.LoadScenario("testdata/scenarios/red_loop.yaml")
//	real, mirror := scenario.States()
//	report, err := twin.NewDetector(0.05).Compare(real, mirror)
//	r, err := report.Receipt(scenario.Context, tenantID, now, scenario.Fields)
package twin
