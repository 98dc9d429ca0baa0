package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/glyph/internal/ledger"
	"github.com/roach88/glyph/internal/store"
)

// NewProveCommand creates the prove command.
func NewProveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prove <receipt-id>",
		Short: "Print the inclusion proof of a sealed receipt",
		Long: `Print the Merkle inclusion proof of a sealed receipt as JSON. The proof
can be checked later with verify-proof, without access to the ledger.

Example:
  glyph prove receipt-3f0c... > proof.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProve(rootOpts, args[0], cmd)
		},
	}
}

func runProve(opts *RootOptions, receiptID string, cmd *cobra.Command) error {
	e, err := newEnv(opts, cmd)
	if err != nil {
		return err
	}
	l, st, err := e.newLedger()
	if err != nil {
		return err
	}
	defer st.Close()

	proof, err := l.Prove(cmd.Context(), receiptID)
	switch {
	case errors.Is(err, ledger.ErrNotBatched), errors.Is(err, store.ErrNotFound):
		_ = e.formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitFailure, "no proof", err)
	case err != nil:
		return e.storeError("prove failed", err)
	}

	if e.formatter.Format == "json" {
		return e.formatter.Success(proof)
	}
	encoder := json.NewEncoder(e.formatter.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(proof)
}

// NewVerifyProofCommand creates the verify-proof command.
func NewVerifyProofCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-proof <file|->",
		Short: "Verify an inclusion proof",
		Long: `Recompute the Merkle root from a proof's leaf and steps and check the
root signature for the configured tenant. Exits 1 on mismatch.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerifyProof(rootOpts, args[0], cmd)
		},
	}
}

func runVerifyProof(opts *RootOptions, input string, cmd *cobra.Command) error {
	e, err := newEnv(opts, cmd)
	if err != nil {
		return err
	}

	rc, err := openInput(cmd, input)
	if err != nil {
		return e.inputError(err)
	}
	defer rc.Close()

	var proof ledger.InclusionProof
	dec := json.NewDecoder(rc)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&proof); err != nil {
		return e.inputError(fmt.Errorf("decode proof: %w", err))
	}

	verifier := ledger.New(nil, e.signer, nil, e.cfg.TenantID)
	if err := verifier.VerifyProof(proof); err != nil {
		_ = e.formatter.Error(ErrCodeProof, err.Error(), nil)
		return WrapExitError(ExitFailure, "proof does not verify", err)
	}

	if e.formatter.Format == "json" {
		return e.formatter.Success(map[string]any{
			"valid":      true,
			"receipt_id": proof.ReceiptID,
			"batch_id":   proof.BatchID,
			"root":       proof.Root,
		})
	}
	return e.formatter.Success(fmt.Sprintf("✓ %s is leaf %d of batch %s (root %s)",
		proof.ReceiptID, proof.LeafIndex, proof.BatchID, proof.Root))
}
