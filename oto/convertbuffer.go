package oto

import (
	"encoding/binary"
	"math"
)

// FloatBufferToBytes writes src to dst as little-endian float32 samples,
// which is the sample format the context is opened with. dst must hold at
// least 4*len(src) bytes. Samples are clamped to -1..1.
func FloatBufferToBytes(dst []byte, src []float32) {
	for i, v := range src {
		if v < -1.0 {
			v = -1.0
		} else if v > 1.0 {
			v = 1.0
		}
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(v))
	}
}
