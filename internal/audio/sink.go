// Package audio provides the output side of the render loop.
package audio

import (
	"encoding/binary"
	"math"
)

// Channels is the number of interleaved output channels (left, right).
const Channels = 2

// Sink consumes interleaved stereo float32 samples. WriteFrames blocks until
// the device has taken the samples, so it paces whoever feeds it.
type Sink interface {
	WriteFrames(samples []float32) error
	Close() error
}

// encodeFloat32LE writes samples as little-endian IEEE 754 into dst, which
// must hold 4 bytes per sample.
func encodeFloat32LE(dst []byte, samples []float32) []byte {
	dst = dst[:len(samples)*4]
	for i, s := range samples {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(s))
	}
	return dst
}
