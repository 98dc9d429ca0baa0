package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/glyph/internal/coldstore"
	"github.com/roach88/glyph/internal/compaction"
	"github.com/roach88/glyph/internal/receipt"
	"github.com/roach88/glyph/internal/store"
)

// CompactOptions holds flags for the compact command.
type CompactOptions struct {
	*RootOptions
	MetricsTextfile string
}

// NewCompactCommand creates the compact command.
func NewCompactCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompactOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compact",
		Short: "Run the compaction gate over the hot and cold stores",
		Long: `Reclaim archived rows from the hot store, compact the cold store and
print the compaction_complete receipt.

A store that fails to open or compact is reported in the receipt; the run
fails only when both do. Exits 1 when the health metric (slo.pce_transitivity
or PCE_TRANSITIVITY) is below the tenant's death threshold.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompact(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "write Prometheus gauges to this file (overrides metrics.textfile)")

	return cmd
}

func runCompact(opts *CompactOptions, cmd *cobra.Command) error {
	e, err := newEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	// A store that fails to open stays a nil interface; the gate reports it.
	var (
		hot  compaction.HotStore
		cold compaction.ColdStore
	)
	if st, err := store.Open(e.cfg.Ledger.Hot.Path); err != nil {
		e.logger.Warn("hot store unavailable", "path", e.cfg.Ledger.Hot.Path, "error", err)
	} else {
		defer st.Close()
		hot = st
	}
	if archive, err := coldstore.Open(e.cfg.Ledger.Cold.Path); err != nil {
		e.logger.Warn("cold store unavailable", "path", e.cfg.Ledger.Cold.Path, "error", err)
	} else {
		defer archive.Close()
		cold = archive
	}

	gate := compaction.NewGate(hot, cold, e.signer,
		compaction.WithClock(e.opts.now),
		compaction.WithLogger(e.logger),
		compaction.WithValidator(e.validator),
	)
	health := e.cfg.SLO.PCETransitivity
	res, err := gate.Run(cmd.Context(), compaction.Config{
		TenantID:       e.cfg.TenantID,
		HealthMetric:   &health,
		DeathThreshold: e.cfg.Thresholds(e.cfg.TenantID).Death,
	})
	if errors.Is(err, compaction.ErrInvalidConfig) {
		_ = e.formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid compaction config", err)
	}
	if err != nil {
		return e.storeError("compaction failed", err)
	}

	textfile := opts.MetricsTextfile
	if textfile == "" {
		textfile = e.cfg.Metrics.Textfile
	}
	if textfile != "" {
		if err := compaction.WriteTextfile(textfile, e.cfg.TenantID, res); err != nil {
			e.logger.Warn("metrics textfile not written", "path", textfile, "error", err)
		}
	}

	if res.DeathTriggered {
		msg := fmt.Sprintf("death criteria triggered: health %.4f < threshold %.2f", res.HealthMetric, res.DeathThreshold)
		if e.formatter.Format == "json" {
			_ = e.formatter.Failure(ErrCodeDeath, msg, res.Receipt)
		} else {
			_ = e.formatter.Receipts([]receipt.Receipt{res.Receipt})
			fmt.Fprintf(e.formatter.GetErrWriter(), "Error [%s]: %s\n", ErrCodeDeath, msg)
		}
		return NewExitError(ExitFailure, msg)
	}

	if e.formatter.Format == "json" {
		return e.formatter.Success(res.Receipt)
	}
	return e.formatter.Receipts([]receipt.Receipt{res.Receipt})
}
