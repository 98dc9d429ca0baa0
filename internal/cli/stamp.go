package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/glyph/internal/receipt"
)

// NewStampCommand creates the stamp command.
func NewStampCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stamp <file|->",
		Short: "Stamp receipts with content hash, receipt id and signature",
		Long: `Stamp unsigned receipts and print them.

Input is a JSON object, an array of objects or JSON lines. Any existing
content_hash, receipt_id or signature is replaced.

Example:
  glyph stamp receipt.json
  cat receipts.jsonl | glyph stamp -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStamp(rootOpts, args[0], cmd)
		},
	}
}

func runStamp(opts *RootOptions, input string, cmd *cobra.Command) error {
	e, err := newEnv(opts, cmd)
	if err != nil {
		return err
	}
	rs, err := e.readReceipts(cmd, input)
	if err != nil {
		return err
	}

	stamped := make([]receipt.Receipt, len(rs))
	for i, r := range rs {
		stamped[i], err = receipt.Stamp(r, e.signer)
		if err != nil {
			return e.inputError(fmt.Errorf("receipt %d: %w", i, err))
		}
	}
	return e.formatter.Receipts(stamped)
}
