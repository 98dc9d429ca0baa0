package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/glyph/internal/config"
	"github.com/roach88/glyph/internal/ledger"
	"github.com/roach88/glyph/internal/receipt"
	"github.com/roach88/glyph/internal/schema"
	"github.com/roach88/glyph/internal/signature"
	"github.com/roach88/glyph/internal/store"
)

// env is what a command needs after config is loaded.
type env struct {
	opts      *RootOptions
	cfg       config.Config
	signer    signature.Stub
	validator *schema.Validator
	logger    *slog.Logger
	formatter *OutputFormatter
}

// newEnv loads config and builds the shared components. Stdout is reserved
// for command output; logs go to the command's stderr.
func newEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(opts.ConfigPath, opts.Getenv)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	validator, err := schema.New(cfg.Producers)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build validator", err)
	}

	return &env{
		opts:      opts,
		cfg:       cfg,
		signer:    signature.NewStub(cfg.Signature.Tag),
		validator: validator,
		logger:    newLogger(opts.Verbose, cmd.ErrOrStderr()),
		formatter: formatter,
	}, nil
}

// newLogger returns a text logger: Info by default, Debug when verbose.
func newLogger(verbose bool, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// openStore opens the hot store, creating its directory if needed.
func (e *env) openStore() (*store.Store, error) {
	path := e.cfg.Ledger.Hot.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, e.storeError("failed to create hot store directory", err)
	}
	e.logger.Debug("opening hot store", "path", path)
	st, err := store.Open(path)
	if err != nil {
		return nil, e.storeError("failed to open hot store", err)
	}
	return st, nil
}

func (e *env) storeError(message string, err error) error {
	_ = e.formatter.Error(ErrCodeStore, fmt.Sprintf("%s: %v", message, err), nil)
	return WrapExitError(ExitCommandError, message, err)
}

// newLedger opens the hot store and wraps it in a Ledger. The caller closes
// the store.
func (e *env) newLedger() (*ledger.Ledger, *store.Store, error) {
	st, err := e.openStore()
	if err != nil {
		return nil, nil, err
	}
	l := ledger.New(st, e.signer, e.validator, e.cfg.TenantID,
		ledger.WithLogger(e.logger),
		ledger.WithClock(e.opts.now),
	)
	return l, st, nil
}

// readReceipts reads receipts from a file or, for "-", from stdin.
func (e *env) readReceipts(cmd *cobra.Command, arg string) ([]receipt.Receipt, error) {
	rc, err := openInput(cmd, arg)
	if err != nil {
		return nil, e.inputError(err)
	}
	defer rc.Close()

	rs, err := receipt.ParseAll(rc)
	if err != nil {
		return nil, e.inputError(err)
	}
	e.formatter.VerboseLog("Read %d receipt(s) from %s", len(rs), arg)
	return rs, nil
}

func (e *env) inputError(err error) error {
	_ = e.formatter.Error(ErrCodeInput, err.Error(), nil)
	return WrapExitError(ExitCommandError, "failed to read input", err)
}

func openInput(cmd *cobra.Command, arg string) (io.ReadCloser, error) {
	if arg == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(arg)
}
