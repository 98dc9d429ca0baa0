// Package merkle builds Merkle roots and inclusion proofs over ordered
// receipt digests.
//
// A level with an odd number of nodes pairs its last node with itself. Root,
// Build and Verify all go through the same pairing code, so a root computed
// alone always equals the root computed alongside a proof.
package merkle

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/glyph/internal/hashing"
)

var (
	// ErrEmptyTree is returned when a root or proof is requested over no leaves.
	ErrEmptyTree = errors.New("merkle: empty tree")

	// ErrIndexOutOfRange is returned by Build for a target outside the leaves.
	ErrIndexOutOfRange = errors.New("merkle: leaf index out of range")

	// ErrInvalidSide is returned for a proof step that is neither Left nor Right.
	ErrInvalidSide = errors.New("merkle: invalid proof side")
)

// Side says where a sibling sits relative to the running accumulator.
type Side uint8

const (
	// Left means parent = Pair(sibling, acc).
	Left Side = iota + 1
	// Right means parent = Pair(acc, sibling).
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Side(%d)", uint8(s))
	}
}

// MarshalText encodes s as "left" or "right".
func (s Side) MarshalText() ([]byte, error) {
	switch s {
	case Left, Right:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidSide, uint8(s))
	}
}

// UnmarshalText accepts "left" or "right".
func (s *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "left":
		*s = Left
	case "right":
		*s = Right
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSide, string(text))
	}
	return nil
}

// Step is one level of an inclusion proof.
type Step struct {
	Sibling hashing.Digest `json:"sibling"`
	Side    Side           `json:"side"`
}

// Proof is the ordered path of steps from a leaf to the root.
type Proof []Step

// MarshalJSON renders an empty proof as [] rather than null.
func (p Proof) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Step(p))
}

// Root returns the Merkle root of leaves. A single leaf is its own root.
func Root(leaves []hashing.Digest) (hashing.Digest, error) {
	if len(leaves) == 0 {
		return hashing.Digest{}, ErrEmptyTree
	}
	level := leaves
	for len(level) > 1 {
		level = parentLevel(level)
	}
	return level[0], nil
}

// Build returns the root of leaves and the inclusion proof for leaves[index].
func Build(leaves []hashing.Digest, index int) (hashing.Digest, Proof, error) {
	if len(leaves) == 0 {
		return hashing.Digest{}, nil, ErrEmptyTree
	}
	if index < 0 || index >= len(leaves) {
		return hashing.Digest{}, nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(leaves))
	}

	proof := Proof{}
	level := leaves
	idx := index
	for len(level) > 1 {
		proof = append(proof, siblingStep(level, idx))
		level = parentLevel(level)
		idx /= 2
	}
	return level[0], proof, nil
}

// Verify folds proof from leaf upward and returns the recomputed root. The
// caller compares it with a root it trusts.
func Verify(leaf hashing.Digest, proof Proof) (hashing.Digest, error) {
	acc := leaf
	for i, step := range proof {
		switch step.Side {
		case Left:
			acc = hashing.Pair(step.Sibling, acc)
		case Right:
			acc = hashing.Pair(acc, step.Sibling)
		default:
			return hashing.Digest{}, fmt.Errorf("step %d: %w: %d", i, ErrInvalidSide, uint8(step.Side))
		}
	}
	return acc, nil
}

// Contains reports whether proof links leaf to root.
func Contains(root, leaf hashing.Digest, proof Proof) bool {
	got, err := Verify(leaf, proof)
	return err == nil && got == root
}

// LeavesFromHex parses hex digests into leaves.
func LeavesFromHex(hexes []string) ([]hashing.Digest, error) {
	leaves := make([]hashing.Digest, len(hexes))
	for i, h := range hexes {
		d, err := hashing.ParseHex(h)
		if err != nil {
			return nil, fmt.Errorf("leaf %d: %w", i, err)
		}
		leaves[i] = d
	}
	return leaves, nil
}

// pairAt returns the (left, right) children for parent i of level, applying
// the duplicate-last rule.
func pairAt(level []hashing.Digest, i int) (hashing.Digest, hashing.Digest) {
	left := level[2*i]
	right := left
	if 2*i+1 < len(level) {
		right = level[2*i+1]
	}
	return left, right
}

func parentLevel(level []hashing.Digest) []hashing.Digest {
	n := (len(level) + 1) / 2
	next := make([]hashing.Digest, n)
	for i := range n {
		left, right := pairAt(level, i)
		next[i] = hashing.Pair(left, right)
	}
	return next
}

func siblingStep(level []hashing.Digest, idx int) Step {
	left, right := pairAt(level, idx/2)
	if idx%2 == 0 {
		return Step{Sibling: right, Side: Right}
	}
	return Step{Sibling: left, Side: Left}
}
