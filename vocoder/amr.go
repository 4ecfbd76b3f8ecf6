package vocoder

var amrTag = [3]byte{'A', 'M', 'R'}

const amrDTXEnergyThreshold = 100.0

// AMR implements the mock AMR 12.2 kbps variant of spec.md §4.6.
type AMR struct {
	plcState
	VadDTX bool
}

// NewAMR builds an AMR 12.2 codec, optionally with DTX comfort-noise
// generation enabled.
func NewAMR(vadDTX bool) *AMR {
	return &AMR{VadDTX: vadDTX}
}

func (c *AMR) Encode(pcm []int16) []byte {
	if c.VadDTX && blockEnergy(pcm) < amrDTXEnergyThreshold {
		return append(amrTag[:], 0x00)
	}
	out := make([]byte, 3+len(pcm))
	copy(out, amrTag[:])
	for i, s := range pcm {
		out[3+i] = byte(clipInt8(float64(s) / 32768.0 * 127))
	}
	return out
}

func (c *AMR) Decode(bitstream []byte) []int16 {
	if len(bitstream) < 3 {
		return make([]int16, FrameLen)
	}
	body := bitstream[3:]
	if len(body) == 1 {
		return make([]int16, FrameLen) // comfort noise, mock as silence
	}
	out := make([]int16, FrameLen)
	for i := 0; i < len(body) && i < FrameLen; i++ {
		out[i] = int16(float64(int8(body[i])) / 127 * 32768.0)
	}
	return out
}

// ProcessFrame is the PLC shell of spec.md §4.6: a lost frame (pcm == nil)
// is concealed from the loss history; a good frame is recorded and
// returned unchanged. Callers that want the quantization roundtrip apply
// Encode/Decode themselves before calling ProcessFrame with the result.
func (c *AMR) ProcessFrame(pcm []int16) []int16 {
	if pcm == nil {
		return c.conceal()
	}
	c.recordGood(pcm)
	out := make([]int16, len(pcm))
	copy(out, pcm)
	return out
}
