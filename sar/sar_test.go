package sar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFragmentSingleFragmentHasHeader(t *testing.T) {
	f := NewFragmenter(1500)
	frags := f.Fragment([]byte("hello"))
	require.Len(t, frags, 1)
	frag, ok := Decode(frags[0])
	require.True(t, ok)
	assert.Equal(t, uint8(0), frag.Idx)
	assert.True(t, frag.Last)
	assert.Equal(t, []byte("hello"), frag.Payload)
}

func TestFragmentMultiFragmentSizes(t *testing.T) {
	f := NewFragmenter(10) // cap = 7
	sdu := make([]byte, 25)
	for i := range sdu {
		sdu[i] = byte(i)
	}
	frags := f.Fragment(sdu)
	require.Len(t, frags, 4) // ceil(25/7) = 4
	for i, wire := range frags {
		frag, ok := Decode(wire)
		require.True(t, ok)
		assert.Equal(t, uint8(i), frag.Idx)
		assert.Equal(t, i == len(frags)-1, frag.Last)
	}
}

// TestSARRoundTrip is invariant 1 from spec.md §8: any permutation of a
// fragmenter's output reassembles to exactly the original SDU, emitted
// exactly once.
func TestSARRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		mtu := rapid.IntRange(4, 64).Draw(t, "mtu")
		sdu := rapid.SliceOfN(rapid.Byte(), 0, 300).Draw(t, "sdu")

		f := NewFragmenter(mtu)
		frags := f.Fragment(sdu)

		perm := rapid.Permutation(frags).Draw(t, "perm")

		r := NewReassembler(1_000_000)
		var got []byte
		emits := 0
		for _, wire := range perm {
			if sdu2, ok := r.Push(wire, 0); ok {
				got = sdu2
				emits++
			}
		}
		assert.Equal(t, 1, emits)
		assert.Equal(t, sdu, got)
	})
}

// TestSARLossSoundness is invariant 2: omitting any fragment of a
// multi-fragment SDU must never emit an SDU, and a late fragment after
// eviction must not resurrect it.
func TestSARLossSoundness(t *testing.T) {
	f := NewFragmenter(10)
	sdu := make([]byte, 25)
	frags := f.Fragment(sdu)
	require.Len(t, frags, 4)

	const timeout = int64(100)
	r := NewReassembler(timeout)

	// Drop the middle fragment.
	held := frags[2]
	for i, wire := range frags {
		if i == 2 {
			continue
		}
		_, ok := r.Push(wire, 0)
		assert.False(t, ok)
	}

	// Timeout elapses; evict, then push the held-back fragment late.
	_, ok := r.Push(held, timeout+1)
	assert.False(t, ok, "a late fragment must not resurrect an evicted group")
}

func TestReassemblerRejectsShortFragments(t *testing.T) {
	r := NewReassembler(1000)
	_, ok := r.Push([]byte{0x01, 0x00}, 0)
	assert.False(t, ok)
}

func TestPassThroughReturnsInputUnchanged(t *testing.T) {
	r := NewPassThroughReassembler()
	in := []byte{1, 2, 3, 4}
	out, ok := r.Push(in, 0)
	assert.True(t, ok)
	assert.Equal(t, in, out)
}

func TestReassemblerTimeoutEvictsIncompleteGroup(t *testing.T) {
	f := NewFragmenter(10)
	sdu := make([]byte, 25)
	frags := f.Fragment(sdu)

	r := NewReassembler(50)
	_, ok := r.Push(frags[0], 0)
	assert.False(t, ok)
	_, ok = r.Push(frags[1], 10)
	assert.False(t, ok)
	// Group is now 60ms stale relative to its start (0); pushing anything
	// triggers eviction before this fragment starts a brand new group.
	_, ok = r.Push(frags[2], 60)
	assert.False(t, ok)
	// The final fragment now completes only a fresh (incomplete) group.
	_, ok = r.Push(frags[3], 61)
	assert.False(t, ok)
}

func TestFragIDWrapsModulo256(t *testing.T) {
	f := NewFragmenter(1500)
	var last uint8
	for i := 0; i < 300; i++ {
		frags := f.Fragment([]byte{byte(i)})
		frag, _ := Decode(frags[0])
		last = frag.FragID
	}
	_ = last
	assert.Equal(t, uint8(300%256), f.fragID)
}
