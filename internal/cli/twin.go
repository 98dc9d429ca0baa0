package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/glyph/internal/receipt"
	"github.com/roach88/glyph/internal/twin"
)

// TwinOptions holds flags for the twin command.
type TwinOptions struct {
	*RootOptions
	Submit bool
}

// NewTwinCommand creates the twin command.
func NewTwinCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TwinOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "twin <scenario.yaml>",
		Short: "Compare a real and a twin run and emit the classified receipt",
		Long: `Run the divergence detector over a recorded scenario and print the
stamped receipt: anomaly_detected when the twin forked past the tenant's
divergence threshold, otherwise the scenario context's healthy type.

Example:
  glyph twin scenarios/fork_anomaly.yaml
  glyph twin scenarios/orbital.yaml --submit`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTwin(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Submit, "submit", false, "also submit the receipt to the hot store")

	return cmd
}

func runTwin(opts *TwinOptions, path string, cmd *cobra.Command) error {
	e, err := newEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	sc, err := twin.LoadScenario(path)
	if err != nil {
		return e.inputError(err)
	}

	threshold := e.cfg.Thresholds(e.cfg.TenantID).Divergence
	real, twinStates := sc.States()
	report, err := twin.NewDetector(threshold).Compare(real, twinStates)
	if err != nil {
		return e.inputError(fmt.Errorf("scenario %q: %w", sc.Name, err))
	}
	e.logger.Info("twin compared",
		"scenario", sc.Name,
		"asset_id", report.AssetID,
		"worst_divergence", report.WorstDivergence,
		"anomalous", report.Anomalous,
	)

	r, err := report.Receipt(sc.Context, e.cfg.TenantID, e.opts.now().Unix(), sc.Fields)
	if err != nil {
		return e.inputError(err)
	}
	stamped, err := receipt.Stamp(r, e.signer)
	if err != nil {
		return e.inputError(err)
	}

	if opts.Submit {
		l, st, err := e.newLedger()
		if err != nil {
			return err
		}
		defer st.Close()
		if _, err := l.Submit(cmd.Context(), stamped); err != nil {
			_ = e.formatter.Error(ErrCodeRejected, err.Error(), nil)
			return WrapExitError(ExitFailure, "twin receipt rejected", err)
		}
	} else if err := e.validator.Validate(stamped); err != nil {
		_ = e.formatter.Error(ErrCodeRejected, err.Error(), nil)
		return WrapExitError(ExitFailure, "twin receipt invalid", err)
	}

	if e.formatter.Format == "json" {
		return e.formatter.Success(stamped)
	}
	return e.formatter.Receipts([]receipt.Receipt{stamped})
}
