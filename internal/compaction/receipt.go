package compaction

import (
	"fmt"

	"github.com/roach88/glyph/internal/receipt"
)

func (g *Gate) buildReceipt(tenantID string, res *Result) (receipt.Receipt, error) {
	fields := map[string]any{
		"run_id":                 res.RunID,
		"input_row_count":        optional(res.RowsBefore),
		"output_row_count":       optional(res.RowsAfter),
		"cold_live_bytes_before": optional(res.ColdBytesBefore),
		"cold_live_bytes_after":  optional(res.ColdBytesAfter),
		"reduction_percent":      round2(res.ReductionPercent),
		"pce_transitivity":       round4(res.HealthMetric),
		"death_threshold":        res.DeathThreshold,
		"death_triggered":        res.DeathTriggered,
	}
	if res.HotErr != nil {
		fields["hot_store_error"] = res.HotErr.Error()
	}
	if res.ColdErr != nil {
		fields["cold_store_error"] = res.ColdErr.Error()
	}

	r := receipt.New(receipt.TypeCompactionComplete, receipt.ProducerDraxMetrics, tenantID, g.now().Unix(), fields)
	stamped, err := receipt.Stamp(r, g.signer)
	if err != nil {
		return nil, fmt.Errorf("compaction receipt: %w", err)
	}
	if g.validator != nil {
		if err := g.validator.Validate(stamped); err != nil {
			return nil, fmt.Errorf("compaction receipt: %w", err)
		}
	}
	return stamped, nil
}

// optional maps a nil pointer to JSON null.
func optional[T int64 | uint64](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
