package vocoder

var opusNBTag = [3]byte{'O', 'N', 'B'}

const opusNBDTXEnergyThreshold = 80.0

// OpusNB implements the mock Opus narrowband 16 kbps variant of spec.md
// §4.6: same ×127 quantization as AMR, with a lower DTX energy threshold.
type OpusNB struct {
	plcState
	VadDTX bool
}

// NewOpusNB builds an Opus NB 16 kbps codec.
func NewOpusNB(vadDTX bool) *OpusNB {
	return &OpusNB{VadDTX: vadDTX}
}

func (c *OpusNB) Encode(pcm []int16) []byte {
	if c.VadDTX && blockEnergy(pcm) < opusNBDTXEnergyThreshold {
		return append(opusNBTag[:], 0x00)
	}
	out := make([]byte, 3+len(pcm))
	copy(out, opusNBTag[:])
	for i, s := range pcm {
		out[3+i] = byte(clipInt8(float64(s) / 32768.0 * 127))
	}
	return out
}

func (c *OpusNB) Decode(bitstream []byte) []int16 {
	if len(bitstream) < 3 {
		return make([]int16, FrameLen)
	}
	body := bitstream[3:]
	if len(body) == 1 {
		return make([]int16, FrameLen)
	}
	out := make([]int16, FrameLen)
	for i := 0; i < len(body) && i < FrameLen; i++ {
		out[i] = int16(float64(int8(body[i])) / 127 * 32768.0)
	}
	return out
}

func (c *OpusNB) ProcessFrame(pcm []int16) []int16 {
	if pcm == nil {
		return c.conceal()
	}
	c.recordGood(pcm)
	out := make([]int16, len(pcm))
	copy(out, pcm)
	return out
}
