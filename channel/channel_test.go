package channel

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func tone(n int) []int16 {
	pcm := make([]int16, n)
	for i := range pcm {
		pcm[i] = int16(1000)
	}
	return pcm
}

func TestAWGNEmptyInputUnchanged(t *testing.T) {
	a := NewAWGN(10, seeded(1))
	out := a.Apply(nil)
	assert.Empty(t, out)
}

func TestAWGNZeroPowerInputUnchanged(t *testing.T) {
	a := NewAWGN(10, seeded(1))
	silence := make([]int16, BlockLen)
	out := a.Apply(silence)
	assert.Equal(t, silence, out)
}

func TestAWGNDeterministicGivenSeed(t *testing.T) {
	pcm := tone(BlockLen)
	a1 := NewAWGN(15, seeded(42))
	a2 := NewAWGN(15, seeded(42))
	assert.Equal(t, a1.Apply(pcm), a2.Apply(pcm))
}

func TestAWGNHigherSNRMeansCloserToOriginal(t *testing.T) {
	pcm := tone(BlockLen)
	lowSNR := NewAWGN(0, seeded(7)).Apply(pcm)
	highSNR := NewAWGN(40, seeded(7)).Apply(pcm)

	var lowErr, highErr float64
	for i := range pcm {
		ld := float64(pcm[i] - lowSNR[i])
		hd := float64(pcm[i] - highSNR[i])
		lowErr += ld * ld
		highErr += hd * hd
	}
	assert.Greater(t, lowErr, highErr, "lower SNR should introduce more distortion")
}

func TestEstimatedSNRMismatchedLengthReturnsZero(t *testing.T) {
	assert.Equal(t, 0.0, EstimatedSNR(tone(10), tone(20)))
}

func TestFadingDeterministicGivenSeed(t *testing.T) {
	pcm := tone(BlockLen)
	f1 := NewFading(3, 5, 8000, 20, seeded(99))
	f2 := NewFading(3, 5, 8000, 20, seeded(99))
	assert.Equal(t, f1.Apply(pcm), f2.Apply(pcm))
	assert.Equal(t, f1.LastMagnitude, f2.LastMagnitude)
}

func TestFadingMagnitudeIsNonNegative(t *testing.T) {
	f := NewFading(4, 5, 8000, 20, seeded(3))
	for i := 0; i < 20; i++ {
		f.Apply(tone(BlockLen))
		assert.GreaterOrEqual(t, f.LastMagnitude, 0.0)
	}
}
