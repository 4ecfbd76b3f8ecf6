package channel

import (
	"math"
	"math/rand/v2"
)

// complexTap is a minimal complex number, avoiding a dependency on the
// standard library's complex128 arithmetic helpers (none are needed beyond
// what's written out here).
type complexTap struct {
	re, im float64
}

func (c complexTap) abs() float64 {
	return math.Hypot(c.re, c.im)
}

// Fading is a Rayleigh flat-fading channel with L complex taps, per
// spec.md §4.5. Each tap advances by a per-tap pseudo-Doppler rotation plus
// a small Gaussian random walk every block, renormalized to unit total
// power; the first tap's magnitude scales the input, followed by AWGN.
type Fading struct {
	FdHz       float64
	SampleRate float64
	SNRDb      float64

	taps       []complexTap
	dopplerHz  []float64
	rng        *rand.Rand
	awgn       *AWGN

	// LastMagnitude and LastPhase expose the first tap's state after the
	// most recent Apply call, for metrics per spec.md §4.5.
	LastMagnitude float64
	LastPhase     float64
}

// NewFading builds an L-tap Rayleigh fading channel seeded from rng.
func NewFading(numTaps int, fdHz, sampleRate, snrDb float64, rng *rand.Rand) *Fading {
	f := &Fading{
		FdHz:       fdHz,
		SampleRate: sampleRate,
		SNRDb:      snrDb,
		taps:       make([]complexTap, numTaps),
		dopplerHz:  make([]float64, numTaps),
		rng:        rng,
		awgn:       NewAWGN(snrDb, rng),
	}
	for i := range f.taps {
		f.taps[i] = complexTap{re: rng.NormFloat64(), im: rng.NormFloat64()}
		f.dopplerHz[i] = fdHz/2 + rng.Float64()*(fdHz/2)
	}
	f.normalize()
	return f
}

func (f *Fading) normalize() {
	var power float64
	for _, t := range f.taps {
		power += t.re*t.re + t.im*t.im
	}
	if power == 0 {
		return
	}
	scale := 1 / math.Sqrt(power)
	for i := range f.taps {
		f.taps[i].re *= scale
		f.taps[i].im *= scale
	}
}

func (f *Fading) advance() {
	dt := float64(BlockLen) / f.SampleRate
	for i := range f.taps {
		theta := 2 * math.Pi * f.dopplerHz[i] * dt
		cos, sin := math.Cos(theta), math.Sin(theta)
		t := f.taps[i]
		rotated := complexTap{
			re: t.re*cos - t.im*sin,
			im: t.re*sin + t.im*cos,
		}
		const walkSigma = 0.01
		rotated.re += f.rng.NormFloat64() * walkSigma
		rotated.im += f.rng.NormFloat64() * walkSigma
		f.taps[i] = rotated
	}
	f.normalize()
}

// Apply advances the channel state by one block and applies the first
// tap's magnitude as a flat-fading scalar, then AWGN at the configured
// SNR, per spec.md §4.5.
func (f *Fading) Apply(pcm []int16) []int16 {
	f.advance()

	first := f.taps[0]
	f.LastMagnitude = first.abs()
	f.LastPhase = math.Atan2(first.im, first.re)

	faded := make([]int16, len(pcm))
	for i, s := range pcm {
		v := float64(s) * f.LastMagnitude
		faded[i] = clipToInt16(v / 32768.0)
	}
	return f.awgn.Apply(faded)
}
