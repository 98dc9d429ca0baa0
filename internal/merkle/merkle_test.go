package merkle

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/glyph/internal/hashing"
)

func makeLeaves(n int) []hashing.Digest {
	leaves := make([]hashing.Digest, n)
	for i := range leaves {
		leaves[i] = hashing.Sum([]byte(fmt.Sprintf("leaf-%d", i)))
	}
	return leaves
}

func TestRootEmpty(t *testing.T) {
	_, err := Root(nil)
	assert.ErrorIs(t, err, ErrEmptyTree)

	_, _, err = Build(nil, 0)
	assert.ErrorIs(t, err, ErrEmptyTree)
}

func TestRootSingleLeaf(t *testing.T) {
	leaves := makeLeaves(1)

	root, err := Root(leaves)
	require.NoError(t, err)
	assert.Equal(t, leaves[0], root)

	root, proof, err := Build(leaves, 0)
	require.NoError(t, err)
	assert.Equal(t, leaves[0], root)
	assert.Empty(t, proof)
}

func TestRootTwoLeaves(t *testing.T) {
	leaves := makeLeaves(2)

	root, err := Root(leaves)
	require.NoError(t, err)
	assert.Equal(t, hashing.Pair(leaves[0], leaves[1]), root)
}

func TestRootDuplicatesLastLeaf(t *testing.T) {
	leaves := makeLeaves(3)

	root, err := Root(leaves)
	require.NoError(t, err)

	left := hashing.Pair(leaves[0], leaves[1])
	right := hashing.Pair(leaves[2], leaves[2])
	assert.Equal(t, hashing.Pair(left, right), root)
}

func TestRootDuplicateDiffersFromPadding(t *testing.T) {
	// [a, b, c] and [a, b, c, c] share a root under the duplicate rule; a
	// carried-up last leaf would give a different one.
	three := makeLeaves(3)
	four := append(append([]hashing.Digest{}, three...), three[2])

	r3, err := Root(three)
	require.NoError(t, err)
	r4, err := Root(four)
	require.NoError(t, err)
	assert.Equal(t, r4, r3)

	carried := hashing.Pair(hashing.Pair(three[0], three[1]), three[2])
	assert.NotEqual(t, carried, r3)
}

func TestRootStable(t *testing.T) {
	leaves := makeLeaves(7)
	a, err := Root(leaves)
	require.NoError(t, err)
	b, err := Root(leaves)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRootChangesWithAnyLeaf(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 8, 13} {
		leaves := makeLeaves(n)
		base, err := Root(leaves)
		require.NoError(t, err)

		for i := range leaves {
			mutated := append([]hashing.Digest{}, leaves...)
			mutated[i] = hashing.Sum([]byte("tampered"))
			got, err := Root(mutated)
			require.NoError(t, err)
			assert.NotEqual(t, base, got, "n=%d i=%d", n, i)
		}
	}
}

func TestRootOrderMatters(t *testing.T) {
	leaves := makeLeaves(4)
	swapped := []hashing.Digest{leaves[1], leaves[0], leaves[2], leaves[3]}

	a, err := Root(leaves)
	require.NoError(t, err)
	b, err := Root(swapped)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBuildProofSoundness(t *testing.T) {
	for n := 1; n <= 17; n++ {
		leaves := makeLeaves(n)
		want, err := Root(leaves)
		require.NoError(t, err)

		for i := range leaves {
			root, proof, err := Build(leaves, i)
			require.NoError(t, err)
			assert.Equal(t, want, root, "n=%d i=%d", n, i)

			got, err := Verify(leaves[i], proof)
			require.NoError(t, err)
			assert.Equal(t, want, got, "n=%d i=%d", n, i)
			assert.True(t, Contains(want, leaves[i], proof))
		}
	}
}

func TestBuildLastOddLeafProof(t *testing.T) {
	leaves := makeLeaves(3)

	_, proof, err := Build(leaves, 2)
	require.NoError(t, err)
	require.Len(t, proof, 2)
	assert.Equal(t, Step{Sibling: leaves[2], Side: Right}, proof[0])
	assert.Equal(t, Step{Sibling: hashing.Pair(leaves[0], leaves[1]), Side: Left}, proof[1])
}

func TestBuildIndexOutOfRange(t *testing.T) {
	leaves := makeLeaves(4)

	for _, idx := range []int{-1, 4, 100} {
		_, _, err := Build(leaves, idx)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", idx)
	}
}

func TestVerifyRejectsWrongLeaf(t *testing.T) {
	leaves := makeLeaves(6)
	root, proof, err := Build(leaves, 3)
	require.NoError(t, err)

	assert.False(t, Contains(root, leaves[2], proof))
	assert.False(t, Contains(root, leaves[3], proof[:len(proof)-1]))
}

func TestVerifyInvalidSide(t *testing.T) {
	_, err := Verify(hashing.Digest{}, Proof{{Sibling: hashing.Digest{}, Side: 0}})
	assert.ErrorIs(t, err, ErrInvalidSide)
}

func TestProofJSON(t *testing.T) {
	leaves := makeLeaves(5)
	root, proof, err := Build(leaves, 4)
	require.NoError(t, err)

	data, err := json.Marshal(proof)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"side":"right"`)
	assert.Contains(t, string(data), `"sibling":"`+leaves[4].String()+`"`)

	var decoded Proof
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, Contains(root, leaves[4], decoded))

	empty, err := json.Marshal(Proof(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))

	var bad Proof
	assert.Error(t, json.Unmarshal([]byte(`[{"sibling":"`+leaves[0].String()+`","side":"up"}]`), &bad))
}

func TestLeavesFromHex(t *testing.T) {
	leaves := makeLeaves(2)

	got, err := LeavesFromHex([]string{leaves[0].String(), leaves[1].String()})
	require.NoError(t, err)
	assert.Equal(t, leaves, got)

	_, err = LeavesFromHex([]string{leaves[0].String(), "zz"})
	assert.ErrorIs(t, err, hashing.ErrMalformedDigest)
}
