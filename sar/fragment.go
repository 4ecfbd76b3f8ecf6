// Package sar implements the SAR-lite segmentation-and-reassembly framing
// protocol used to carry variable-size SDUs over a bounded-MTU bearer.
//
// The fragmenter buffers nothing across calls to Fragment (each SDU is
// sliced in one shot, like the teacher's pcm.FrameAssembler slices a byte
// stream into fixed frames); the reassembler keeps one in-progress group
// per frag_id, evicted on timeout, much like an IP fragment reassembler.
package sar

// HeaderSize is the fixed 3-byte SAR fragment header: frag_id, idx, last.
const HeaderSize = 3

// Fragment is one wire fragment: a 3-byte header followed by a slice of
// the original SDU.
type Fragment struct {
	FragID  uint8
	Idx     uint8
	Last    bool
	Payload []byte
}

// Encode renders f as wire bytes: frag_id, idx, last(0/1), payload.
func (f Fragment) Encode() []byte {
	out := make([]byte, HeaderSize+len(f.Payload))
	out[0] = f.FragID
	out[1] = f.Idx
	if f.Last {
		out[2] = 1
	}
	copy(out[HeaderSize:], f.Payload)
	return out
}

// Decode parses wire bytes into a Fragment. Fragments shorter than
// HeaderSize are invalid (spec.md §4.3 "Error modes").
func Decode(wire []byte) (Fragment, bool) {
	if len(wire) < HeaderSize {
		return Fragment{}, false
	}
	return Fragment{
		FragID:  wire[0],
		Idx:     wire[1],
		Last:    wire[2] != 0,
		Payload: wire[HeaderSize:],
	}, true
}

// Fragmenter is a stateful, per-direction SDU fragmenter. frag_id
// increments modulo 256 once per SDU, regardless of how many fragments the
// SDU produced.
type Fragmenter struct {
	mtu    int
	fragID uint8
}

// NewFragmenter builds a fragmenter for a bearer with the given MTU (must
// be > HeaderSize per spec.md §3's scenario invariant; callers validate the
// scenario before constructing one).
func NewFragmenter(mtu int) *Fragmenter {
	return &Fragmenter{mtu: mtu}
}

// Fragment splits sdu into one or more wire fragments per spec.md §4.3.
func (f *Fragmenter) Fragment(sdu []byte) [][]byte {
	capacity := f.mtu - HeaderSize
	if capacity < 1 {
		capacity = 1
	}
	id := f.fragID
	f.fragID++

	if len(sdu) <= capacity {
		return [][]byte{Fragment{FragID: id, Idx: 0, Last: true, Payload: sdu}.Encode()}
	}

	n := (len(sdu) + capacity - 1) / capacity
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		start := i * capacity
		end := start + capacity
		if end > len(sdu) {
			end = len(sdu)
		}
		out = append(out, Fragment{
			FragID:  id,
			Idx:     uint8(i),
			Last:    i == n-1,
			Payload: sdu[start:end],
		}.Encode())
	}
	return out
}
