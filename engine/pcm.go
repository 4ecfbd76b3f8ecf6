package engine

import "encoding/binary"

// pcmToBytes/bytesToPCM convert between []int16 PCM blocks and the little-
// endian byte payload the bearer queue carries, so audio frames can share
// the same Datagram plumbing as byte-mode SDUs.
func pcmToBytes(pcm []int16) []byte {
	out := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func bytesToPCM(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}
