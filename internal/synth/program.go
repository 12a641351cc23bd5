// Package synth contains the sound programs the render loop binds to each
// channel group, and the polyphonic voice pool that plays them.
package synth

import "math"

// Note is what a Program needs to start a voice.
type Note struct {
	Pitch      uint8
	Velocity   uint8
	SampleRate float64
}

// Frequency returns the equal-tempered frequency of the pitch (A4 = 440 Hz).
func (n Note) Frequency() float64 {
	return 440 * math.Pow(2, (float64(n.Pitch)-69)/12)
}

// Amplitude maps velocity to a linear gain in [0, 1].
func (n Note) Amplitude() float64 {
	return float64(n.Velocity) / 127
}

// Voice renders one sounding note, one mono sample at a time.
type Voice interface {
	Next() float64
	// Release starts the voice's release; it keeps sounding until Done.
	Release()
	Done() bool
}

// Program builds a voice for a note.
type Program func(n Note) Voice

// Entry is one named program of a ProgramTable.
type Entry struct {
	Name    string
	Program Program
}
