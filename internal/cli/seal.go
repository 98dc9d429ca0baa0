package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/glyph/internal/ledger"
	"github.com/roach88/glyph/internal/store"
)

// BatchResult is the JSON payload of the seal command.
type BatchResult struct {
	ID            string `json:"batch_id"`
	Seq           int64  `json:"seq"`
	Root          string `json:"root"`
	RootSignature string `json:"root_signature"`
	LeafCount     int    `json:"leaf_count"`
	SealedAt      int64  `json:"sealed_at"`
}

func newBatchResult(b store.Batch) BatchResult {
	return BatchResult{
		ID:            b.ID,
		Seq:           b.Seq,
		Root:          b.Root,
		RootSignature: b.RootSignature,
		LeafCount:     b.LeafCount,
		SealedAt:      b.SealedAt,
	}
}

func (b BatchResult) String() string {
	return fmt.Sprintf("sealed batch %s (seq %d, %d receipt(s))\nroot %s", b.ID, b.Seq, b.LeafCount, b.Root)
}

// NewSealCommand creates the seal command.
func NewSealCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seal",
		Short: "Seal pending receipts into a Merkle batch",
		Long: `Seal every receipt not yet in a batch, in submission order, into one
Merkle batch with a signed root. Nothing pending is not an error.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeal(rootOpts, cmd)
		},
	}
}

func runSeal(opts *RootOptions, cmd *cobra.Command) error {
	e, err := newEnv(opts, cmd)
	if err != nil {
		return err
	}
	l, st, err := e.newLedger()
	if err != nil {
		return err
	}
	defer st.Close()

	batch, err := l.Seal(cmd.Context())
	if errors.Is(err, ledger.ErrNothingToSeal) {
		if e.formatter.Format == "json" {
			return e.formatter.Success(map[string]any{"sealed": false})
		}
		return e.formatter.Success("nothing to seal")
	}
	if err != nil {
		return e.storeError("seal failed", err)
	}
	return e.formatter.Success(newBatchResult(batch))
}
