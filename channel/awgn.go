// Package channel implements the sample-domain impairment models of
// spec.md §4.5: additive white Gaussian noise and Rayleigh flat fading,
// both operating on 160-sample PCM16 blocks (8 kHz, 20ms frames).
package channel

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// BlockLen is the fixed PCM16 block size spec.md §4.5 operates on.
const BlockLen = 160

// AWGN adds zero-mean Gaussian noise to a PCM16 block at a target SNR.
type AWGN struct {
	SNRDb float64
	rng   *rand.Rand
}

// NewAWGN builds an AWGN channel seeded from rng.
func NewAWGN(snrDb float64, rng *rand.Rand) *AWGN {
	return &AWGN{SNRDb: snrDb, rng: rng}
}

// Apply returns a new block with Gaussian noise added at the configured
// SNR. Empty or zero-power input is copied unchanged, per spec.md §4.5.
func (a *AWGN) Apply(pcm []int16) []int16 {
	out := make([]int16, len(pcm))
	copy(out, pcm)
	if len(pcm) == 0 {
		return out
	}

	samples := make([]float64, len(pcm))
	sq := make([]float64, len(pcm))
	for i, s := range pcm {
		samples[i] = float64(s) / 32768.0
		sq[i] = samples[i] * samples[i]
	}
	ps := floats.Sum(sq) / float64(len(sq))
	if ps == 0 {
		return out
	}

	variance := ps / pow10(a.SNRDb/10)
	sigma := sqrt(variance)
	for i := range out {
		n := a.rng.NormFloat64() * sigma
		v := samples[i] + n
		out[i] = clipToInt16(v)
	}
	return out
}

// EstimatedSNR computes 10*log10(P_signal / P_noise) between the original
// and noisy blocks, per spec.md §4.5.
func EstimatedSNR(orig, noisy []int16) float64 {
	n := len(orig)
	if n == 0 || n != len(noisy) {
		return 0
	}
	sig := make([]float64, n)
	noise := make([]float64, n)
	for i := range orig {
		o := float64(orig[i]) / 32768.0
		ny := float64(noisy[i]) / 32768.0
		sig[i] = o * o
		d := ny - o
		noise[i] = d * d
	}
	ps := floats.Sum(sig) / float64(n)
	pn := floats.Sum(noise) / float64(n)
	if pn == 0 {
		return 0
	}
	return 10 * log10(ps/pn)
}

func clipToInt16(v float64) int16 {
	x := v * 32768.0
	if x > 32767 {
		return 32767
	}
	if x < -32768 {
		return -32768
	}
	return int16(x)
}
