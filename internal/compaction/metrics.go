package compaction

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "glyph_compaction"

// WriteTextfile writes res as Prometheus gauges in the node-exporter textfile
// format. Unknown store figures are left out rather than written as zero.
func WriteTextfile(path string, tenantID string, res *Result) error {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"tenant_id": tenantID}

	gauge := func(name, help string, value float64) error {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
		g.Set(value)
		return reg.Register(g)
	}

	type metric struct {
		name, help string
		value      float64
	}
	metrics := []metric{
		{"reduction_percent", "Largest store reduction of the last run.", res.ReductionPercent},
		{"health_metric", "Transitivity score checked by the death criteria.", res.HealthMetric},
		{"death_threshold", "Health metric threshold of the death criteria.", res.DeathThreshold},
		{"death_triggered", "1 when the last run triggered the death criteria.", boolGauge(res.DeathTriggered)},
		{"hot_store_failed", "1 when the hot store phase failed.", boolGauge(res.HotErr != nil)},
		{"cold_store_failed", "1 when the cold store phase failed.", boolGauge(res.ColdErr != nil)},
	}
	if res.RowsBefore != nil {
		metrics = append(metrics,
			metric{"hot_rows_before", "Hot store receipt rows before reclaim.", float64(*res.RowsBefore)},
			metric{"hot_rows_after", "Hot store receipt rows after reclaim.", float64(*res.RowsAfter)},
		)
	}
	if res.ColdBytesBefore != nil {
		metrics = append(metrics, metric{"cold_live_bytes_before", "Cold store live bytes before compaction.", float64(*res.ColdBytesBefore)})
	}
	if res.ColdBytesAfter != nil {
		metrics = append(metrics, metric{"cold_live_bytes_after", "Cold store live bytes after compaction.", float64(*res.ColdBytesAfter)})
	}

	for _, m := range metrics {
		if err := gauge(m.name, m.help, m.value); err != nil {
			return fmt.Errorf("register %s: %w", m.name, err)
		}
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
