package vocoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loudFrame() []int16 {
	pcm := make([]int16, FrameLen)
	for i := range pcm {
		pcm[i] = 10000
	}
	return pcm
}

func TestPLCNoPriorGoodFrameReturnsSilence(t *testing.T) {
	c := NewAMR(false)
	out := c.ProcessFrame(nil)
	for _, s := range out {
		assert.Equal(t, int16(0), s)
	}
}

func TestPLCSingleLossRepeatsLastGoodFrame(t *testing.T) {
	c := NewAMR(false)
	good := c.ProcessFrame(loudFrame())
	lost := c.ProcessFrame(nil)
	assert.Equal(t, good, lost)
}

func TestPLCAttenuatesOnTwoToThreeConsecutiveLosses(t *testing.T) {
	c := NewAMR(false)
	good := c.ProcessFrame(loudFrame())
	_ = c.ProcessFrame(nil) // loss 1: unchanged
	loss2 := c.ProcessFrame(nil)
	loss3 := c.ProcessFrame(nil)

	for i := range good {
		assert.InDelta(t, float64(good[i])*0.6, float64(loss2[i]), 2)
		assert.InDelta(t, float64(good[i])*0.4, float64(loss3[i]), 2)
	}
}

func TestPLCSilenceAfterFourConsecutiveLosses(t *testing.T) {
	c := NewAMR(false)
	c.ProcessFrame(loudFrame())
	for i := 0; i < 3; i++ {
		c.ProcessFrame(nil)
	}
	loss4 := c.ProcessFrame(nil)
	for _, s := range loss4 {
		assert.Equal(t, int16(0), s)
	}
}

func TestPLCResetsOnGoodFrame(t *testing.T) {
	c := NewAMR(false)
	good := c.ProcessFrame(loudFrame())
	c.ProcessFrame(nil)
	c.ProcessFrame(nil)
	good2 := c.ProcessFrame(loudFrame())
	require.Equal(t, good, good2)
	lost := c.ProcessFrame(nil)
	assert.Equal(t, good2, lost, "loss counter must reset after a good frame")
}

func TestAMRRoundTripApproximatesOriginal(t *testing.T) {
	c := NewAMR(false)
	pcm := loudFrame()
	out := c.Decode(c.Encode(pcm))
	for i := range pcm {
		assert.InDelta(t, pcm[i], out[i], 300)
	}
}

func TestAMRDTXEmitsComfortNoiseBelowThreshold(t *testing.T) {
	c := NewAMR(true)
	silence := make([]int16, FrameLen)
	bs := c.Encode(silence)
	assert.Len(t, bs, 4) // 3-byte tag + 1-byte sentinel
}

func TestEVSFinerQuantizationRoundTrip(t *testing.T) {
	c := NewEVS(false)
	pcm := loudFrame()
	out := c.Decode(c.Encode(pcm))
	for i := range pcm {
		assert.InDelta(t, pcm[i], out[i], 200)
	}
}

func TestOpusNBLowerDTXThreshold(t *testing.T) {
	c := NewOpusNB(true)
	mid := make([]int16, FrameLen)
	for i := range mid {
		mid[i] = 9 // energy 81, above Opus NB's threshold of 80 but would be below AMR/EVS's 100
	}
	bs := c.Encode(mid)
	assert.Greater(t, len(bs), 4, "energy above Opus NB's DTX threshold must not trigger comfort noise")
}
