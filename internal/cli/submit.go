package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// SubmitResult is the JSON payload of the submit command.
type SubmitResult struct {
	Accepted   []string          `json:"accepted"`
	Duplicates []string          `json:"duplicates"`
	Rejected   []RejectionResult `json:"rejected"`
}

// RejectionResult is one rejected receipt.
type RejectionResult struct {
	ReceiptID string `json:"receipt_id"`
	Error     string `json:"error"`
}

func (r SubmitResult) String() string {
	return fmt.Sprintf("accepted %d, duplicates %d, rejected %d",
		len(r.Accepted), len(r.Duplicates), len(r.Rejected))
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <file|->",
		Short: "Verify, validate and store receipts in the hot ledger",
		Long: `Submit stamped receipts to the hot store.

Each receipt passes an integrity check, a signature check and schema
validation before it is written. Rejected receipts do not affect the
others. Resubmitting a stored receipt is a no-op. Exits 1 if any receipt
was rejected.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(rootOpts, args[0], cmd)
		},
	}
}

func runSubmit(opts *RootOptions, input string, cmd *cobra.Command) error {
	e, err := newEnv(opts, cmd)
	if err != nil {
		return err
	}
	rs, err := e.readReceipts(cmd, input)
	if err != nil {
		return err
	}

	l, st, err := e.newLedger()
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := l.SubmitAll(cmd.Context(), rs)
	if err != nil {
		return WrapExitError(ExitCommandError, "submit interrupted", err)
	}

	result := SubmitResult{
		Accepted:   report.Accepted,
		Duplicates: report.Duplicates,
		Rejected:   make([]RejectionResult, 0, len(report.Rejected)),
	}
	for _, rej := range report.Rejected {
		result.Rejected = append(result.Rejected, RejectionResult{ReceiptID: rej.ReceiptID, Error: rej.Err.Error()})
		e.formatter.VerboseLog("rejected %s: %v", rej.ReceiptID, rej.Err)
	}

	if !report.OK() {
		_ = e.formatter.Failure(ErrCodeRejected, fmt.Sprintf("%d receipt(s) rejected", len(report.Rejected)), result)
		return NewExitError(ExitFailure, fmt.Sprintf("%d receipt(s) rejected", len(report.Rejected)))
	}
	return e.formatter.Success(result)
}
