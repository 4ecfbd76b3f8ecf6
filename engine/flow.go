package engine

import (
	"github.com/Icing-Project/DryBox/bearer"
	"github.com/Icing-Project/DryBox/channel"
	"github.com/Icing-Project/DryBox/sar"
	"github.com/Icing-Project/DryBox/vocoder"
)

// flow is one direction's owned state: bearer, SAR codec pair, and (in
// audio mode) vocoder. Per spec.md §9's "Dual-direction symmetry" note,
// the engine drives two flow values through identical code instead of
// duplicating L->R and R->L logic.
type flow struct {
	bearer *bearer.Bearer
	frag   *sar.Fragmenter
	reasm  *sar.Reassembler
	vocode vocoder.Codec

	bytesRxWindow uint64
}

// newByteFlow wires the direction's SAR fragmenter/reassembler pair, per
// spec.md §4.9 step 6: active whenever mtu_bytes < sdu_max_bytes, otherwise
// pass-through. The reassembler timeout is 2x RTT_estimate, where
// RTT_estimate = max(1, 2x latencyMs), per spec.md §4.3's literal,
// deliberately-doubled factor (DESIGN.md Open Question 4).
func newByteFlow(b *bearer.Bearer, mtuBytes, sduMaxBytes int, latencyMs float64) *flow {
	f := &flow{bearer: b}
	if mtuBytes < sduMaxBytes {
		f.frag = sar.NewFragmenter(mtuBytes)
		rttEstimate := maxFloat(1, 2*latencyMs)
		timeoutMs := int64(2 * rttEstimate)
		f.reasm = sar.NewReassembler(timeoutMs)
	} else {
		f.reasm = sar.NewPassThroughReassembler()
	}
	return f
}

func newAudioFlow(b *bearer.Bearer, v vocoder.Codec) *flow {
	return &flow{bearer: b, vocode: v}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// sharedChannel is the optional audio-mode sample-domain impairment,
// applied identically regardless of direction (per spec.md §4.9 step 7,
// one channel instance shared across both flows).
type sharedChannel struct {
	awgn   *channel.AWGN
	fading *channel.Fading
}

func (c *sharedChannel) apply(pcm []int16) (out []int16, snrEst float64) {
	switch {
	case c.fading != nil:
		out = c.fading.Apply(pcm)
		return out, channel.EstimatedSNR(pcm, out)
	case c.awgn != nil:
		out = c.awgn.Apply(pcm)
		return out, channel.EstimatedSNR(pcm, out)
	default:
		return pcm, 0
	}
}
