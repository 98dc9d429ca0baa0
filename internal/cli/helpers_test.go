package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/glyph/internal/receipt"
	"github.com/roach88/glyph/internal/testutil"
)

const testConfig = `
tenant_id = "xai-memphis-01"

[ledger.hot]
path = "data/ledger.sqlite"
[ledger.cold]
path = "data/ledger.pebble"
`

// newTestOptions writes a config into a temp dir and returns options
// pointing at it, with a fixed clock and no environment.
func newTestOptions(t *testing.T, format string) *RootOptions {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "glyph.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	return &RootOptions{
		Format:     format,
		ConfigPath: path,
		Now:        func() time.Time { return testutil.Epoch },
	}
}

// cmdResult captures one command execution.
type cmdResult struct {
	stdout string
	stderr string
	err    error
}

// execute runs cmd with args and optional stdin.
func execute(cmd *cobra.Command, stdin string, args ...string) cmdResult {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return cmdResult{stdout: out.String(), stderr: errOut.String(), err: err}
}

// writeReceipts writes rs as JSON lines to a temp file.
func writeReceipts(t *testing.T, rs ...receipt.Receipt) string {
	t.Helper()
	var buf bytes.Buffer
	for _, r := range rs {
		line, err := receipt.Marshal(r)
		require.NoError(t, err)
		buf.Write(line)
		buf.WriteByte('\n')
	}
	path := filepath.Join(t.TempDir(), "receipts.jsonl")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// parseLines parses each non-empty stdout line as a receipt.
func parseLines(t *testing.T, stdout string) []receipt.Receipt {
	t.Helper()
	var out []receipt.Receipt
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		if line == "" {
			continue
		}
		r, err := receipt.Parse([]byte(line))
		require.NoError(t, err, line)
		out = append(out, r)
	}
	return out
}
