package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/glyph/internal/receipt"
)

// ReceiptResult is the validation outcome of one receipt.
type ReceiptResult struct {
	Index     int    `json:"index"`
	ReceiptID string `json:"receipt_id,omitempty"`
	Valid     bool   `json:"valid"`
	Error     string `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool            `json:"valid"`
	Results []ReceiptResult `json:"results"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file|->",
		Short: "Validate stamped receipts without storing them",
		Long: `Validate stamped receipts: content hash integrity, signature and schema.

Each receipt is checked independently. Exits 1 if any receipt is invalid.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, input string, cmd *cobra.Command) error {
	e, err := newEnv(opts, cmd)
	if err != nil {
		return err
	}
	rs, err := e.readReceipts(cmd, input)
	if err != nil {
		return err
	}

	result := ValidationResult{Valid: true, Results: make([]ReceiptResult, 0, len(rs))}
	for i, r := range rs {
		res := ReceiptResult{Index: i, ReceiptID: r.ID(), Valid: true}
		if err := e.check(r); err != nil {
			res.Valid = false
			res.Error = err.Error()
			result.Valid = false
		}
		result.Results = append(result.Results, res)
	}

	return outputValidation(e.formatter, result)
}

// check runs the same checks as ledger submission, minus the store.
func (e *env) check(r receipt.Receipt) error {
	if err := receipt.VerifyIntegrity(r); err != nil {
		return err
	}
	if !receipt.VerifySignature(r, e.signer) {
		return fmt.Errorf("signature does not verify")
	}
	return e.validator.Validate(r)
}

func outputValidation(formatter *OutputFormatter, result ValidationResult) error {
	invalid := 0
	for _, r := range result.Results {
		if !r.Valid {
			invalid++
		}
	}

	if formatter.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if invalid > 0 {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    ErrCodeRejected,
				Message: fmt.Sprintf("%d of %d receipt(s) invalid", invalid, len(result.Results)),
			}
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
	} else {
		for _, r := range result.Results {
			id := r.ReceiptID
			if id == "" {
				id = fmt.Sprintf("#%d", r.Index)
			}
			if r.Valid {
				fmt.Fprintf(formatter.Writer, "✓ %s\n", id)
			} else {
				fmt.Fprintf(formatter.Writer, "✗ %s: %s\n", id, r.Error)
			}
		}
	}

	if invalid > 0 {
		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d receipt(s)", invalid))
	}
	return nil
}
