package coldstore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "cold"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestPutGet(t *testing.T) {
	a := openTestArchive(t)

	require.NoError(t, a.Put(t.Context(), "abc", []byte(`{"x":1}`)))

	got, err := a.Get(t.Context(), "abc")
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(got))

	_, err = a.Get(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutBatchAndCount(t *testing.T) {
	a := openTestArchive(t)

	n, err := a.Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)

	bodies := map[string][]byte{}
	for i := range 10 {
		bodies[fmt.Sprintf("hash-%02d", i)] = []byte(fmt.Sprintf(`{"n":%d}`, i))
	}
	require.NoError(t, a.PutBatch(t.Context(), bodies))
	require.NoError(t, a.Put(t.Context(), "hash-00", bodies["hash-00"]))

	n, err = a.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestEstimateAndCompact(t *testing.T) {
	a := openTestArchive(t)

	empty, known, err := a.EstimateLiveBytes(t.Context())
	require.NoError(t, err)
	assert.True(t, known)
	assert.Zero(t, empty)

	body := make([]byte, 4096)
	// Write the same keys twice so two flushed tables shadow each other.
	for round := range 2 {
		for i := range 50 {
			body[0] = byte(round)
			require.NoError(t, a.Put(t.Context(), fmt.Sprintf("hash-%03d", i), body))
		}
		_, _, err := a.EstimateLiveBytes(t.Context())
		require.NoError(t, err)
	}

	before, known, err := a.EstimateLiveBytes(t.Context())
	require.NoError(t, err)
	require.True(t, known)
	assert.Positive(t, before)

	require.NoError(t, a.CompactAll(t.Context()))

	after, known, err := a.EstimateLiveBytes(t.Context())
	require.NoError(t, err)
	require.True(t, known)
	assert.LessOrEqual(t, after, before)

	// Compaction never loses data.
	n, err := a.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 50, n)
	got, err := a.Get(t.Context(), "hash-007")
	require.NoError(t, err)
	assert.Equal(t, byte(1), got[0])
}

func TestCanceledContext(t *testing.T) {
	a := openTestArchive(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	assert.Error(t, a.Put(ctx, "h", nil))
	assert.Error(t, a.CompactAll(ctx))
	_, _, err := a.EstimateLiveBytes(ctx)
	assert.Error(t, err)
}

func TestCloseTwice(t *testing.T) {
	a, err := Open(filepath.Join(t.TempDir(), "cold"))
	require.NoError(t, err)
	require.NoError(t, a.Close())
	assert.NoError(t, a.Close())
}
