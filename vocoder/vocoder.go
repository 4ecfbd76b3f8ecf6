// Package vocoder implements the mock, educational speech-codec models of
// spec.md §4.6: a shared packet-loss-concealment shell (plcState) around
// three quantization variants (AMR 12.2, EVS 13.2, Opus NB 16).
//
// The consecutive-loss bookkeeping here follows the same shape as the
// teacher's silenceFiller.fillWithSilence: count consecutive gaps, degrade
// output as the count grows, and reset the moment a good frame arrives.
package vocoder

import "math"

// FrameLen is the fixed PCM16 frame size every vocoder variant works on.
const FrameLen = 160

// Codec is the interface every vocoder variant implements, per spec.md
// §4.6: encode/decode plus the shared process_frame PLC shell.
type Codec interface {
	Encode(pcm []int16) []byte
	Decode(bitstream []byte) []int16
	// ProcessFrame records a good frame and returns it unchanged, or runs
	// PLC if pcm is nil (a lost frame). It does not encode or decode.
	ProcessFrame(pcm []int16) []int16
}

// plcState is the shared consecutive-loss counter and last-good-frame
// cache, embedded by every concrete vocoder.
type plcState struct {
	lastGood      []int16
	consecutiveLoss int
	haveGood      bool
}

// conceal implements spec.md §4.6's PLC policy exactly: no prior good frame
// -> silence; 1 consecutive loss -> last good frame unchanged; 2-3 ->
// attenuate by 1-0.2*n; 4+ -> silence.
func (p *plcState) conceal() []int16 {
	p.consecutiveLoss++
	out := make([]int16, FrameLen)
	if !p.haveGood {
		return out
	}
	n := p.consecutiveLoss
	switch {
	case n == 1:
		copy(out, p.lastGood)
	case n >= 2 && n <= 3:
		atten := 1 - 0.2*float64(n)
		for i, s := range p.lastGood {
			out[i] = int16(float64(s) * atten)
		}
	default:
		// n >= 4: silence, already zeroed.
	}
	return out
}

func (p *plcState) recordGood(pcm []int16) {
	if p.lastGood == nil {
		p.lastGood = make([]int16, FrameLen)
	}
	copy(p.lastGood, pcm)
	p.haveGood = true
	p.consecutiveLoss = 0
}

func blockEnergy(pcm []int16) float64 {
	var sum float64
	for _, s := range pcm {
		v := float64(s)
		sum += v * v
	}
	if len(pcm) == 0 {
		return 0
	}
	return sum / float64(len(pcm))
}

func clipInt8(v float64) int8 {
	v = math.Round(v)
	if v > 127 {
		return 127
	}
	if v < -128 {
		return -128
	}
	return int8(v)
}
