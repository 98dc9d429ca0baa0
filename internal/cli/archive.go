package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/glyph/internal/coldstore"
)

// NewArchiveCommand creates the archive command.
func NewArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Copy sealed receipts to the cold store",
		Long: `Copy every sealed, not yet archived receipt to the cold store and mark
it archived in the hot store. The next compact run reclaims those rows.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchive(rootOpts, cmd)
		},
	}
}

func runArchive(opts *RootOptions, cmd *cobra.Command) error {
	e, err := newEnv(opts, cmd)
	if err != nil {
		return err
	}
	l, st, err := e.newLedger()
	if err != nil {
		return err
	}
	defer st.Close()

	cold, err := e.openCold()
	if err != nil {
		return err
	}
	defer cold.Close()

	n, err := l.Archive(cmd.Context(), cold)
	if err != nil {
		return e.storeError("archive failed", err)
	}

	if e.formatter.Format == "json" {
		return e.formatter.Success(map[string]any{"archived": n})
	}
	return e.formatter.Success(fmt.Sprintf("archived %d receipt(s)", n))
}

// openCold opens the cold store, creating its parent directory if needed.
func (e *env) openCold() (*coldstore.Archive, error) {
	path := e.cfg.Ledger.Cold.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, e.storeError("failed to create cold store directory", err)
	}
	e.logger.Debug("opening cold store", "path", path)
	cold, err := coldstore.Open(path)
	if err != nil {
		return nil, e.storeError("failed to open cold store", err)
	}
	return cold, nil
}
