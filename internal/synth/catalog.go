package synth

import (
	"math"
	"math/rand"
)

// oscillator maps a phase in [0, 1) to a sample in [-1, 1].
type oscillator func(phase float64) float64

func sine(p float64) float64 { return math.Sin(2 * math.Pi * p) }

func square(p float64) float64 {
	if p < 0.5 {
		return 1
	}
	return -1
}

func saw(p float64) float64 { return 2*p - 1 }

func triangle(p float64) float64 { return 1 - 4*math.Abs(p-0.5) }

// organ is the first four drawbar harmonics.
func organ(p float64) float64 {
	return (math.Sin(2*math.Pi*p) + 0.5*math.Sin(4*math.Pi*p) +
		0.25*math.Sin(6*math.Pi*p) + 0.125*math.Sin(8*math.Pi*p)) / 1.875
}

type oscVoice struct {
	osc    []oscillator
	phases []float64
	incs   []float64
	amp    float64
	env    envelope
}

func (v *oscVoice) Next() float64 {
	sum := 0.0
	for i, osc := range v.osc {
		sum += osc(v.phases[i])
		v.phases[i] += v.incs[i]
		if v.phases[i] >= 1 {
			v.phases[i] -= math.Floor(v.phases[i])
		}
	}
	return sum / float64(len(v.osc)) * v.amp * v.env.next()
}

func (v *oscVoice) Release() { v.env.release() }
func (v *oscVoice) Done() bool { return v.env.done() }

type adsr struct{ attack, decay, sustain, release float64 }

// oscProgram plays osc at the note frequency times each detune ratio.
func oscProgram(osc oscillator, level float64, shape adsr, detune ...float64) Program {
	if len(detune) == 0 {
		detune = []float64{1}
	}
	return func(n Note) Voice {
		v := &oscVoice{
			osc:    make([]oscillator, len(detune)),
			phases: make([]float64, len(detune)),
			incs:   make([]float64, len(detune)),
			amp:    n.Amplitude() * level,
			env:    newEnvelope(n.SampleRate, shape.attack, shape.decay, shape.sustain, shape.release),
		}
		for i, ratio := range detune {
			v.osc[i] = osc
			v.incs[i] = n.Frequency() * ratio / n.SampleRate
		}
		return v
	}
}

// pluckVoice is a Karplus-Strong string.
type pluckVoice struct {
	buf      []float64
	pos      int
	amp      float64
	damping  float64
	released bool
	fade     float64
}

func (v *pluckVoice) Next() float64 {
	cur := v.buf[v.pos]
	next := v.buf[(v.pos+1)%len(v.buf)]
	v.buf[v.pos] = (cur + next) * 0.5 * v.damping
	v.pos = (v.pos + 1) % len(v.buf)
	if v.released {
		v.fade *= 0.999
	}
	return cur * v.amp * v.fade
}

func (v *pluckVoice) Release() { v.released = true }
func (v *pluckVoice) Done() bool { return v.fade < 1e-3 }

func pluckProgram(rng *rand.Rand) Program {
	return func(n Note) Voice {
		size := int(n.SampleRate / n.Frequency())
		if size < 2 {
			size = 2
		}
		buf := make([]float64, size)
		for i := range buf {
			buf[i] = rng.Float64()*2 - 1
		}
		return &pluckVoice{buf: buf, amp: n.Amplitude() * 0.8, damping: 0.996, fade: 1}
	}
}

// Catalog builds the built-in programs. Every call returns new program
// values, so nothing a session does to them is seen by the next session.
func Catalog() []Entry {
	rng := rand.New(rand.NewSource(rand.Int63()))
	return []Entry{
		{Name: "Sine", Program: oscProgram(sine, 0.6, adsr{0.005, 0.1, 0.8, 0.2})},
		{Name: "Square", Program: oscProgram(square, 0.25, adsr{0.005, 0.1, 0.7, 0.15})},
		{Name: "Sawtooth", Program: oscProgram(saw, 0.3, adsr{0.005, 0.2, 0.6, 0.2})},
		{Name: "Triangle", Program: oscProgram(triangle, 0.6, adsr{0.01, 0.1, 0.8, 0.25})},
		{Name: "Organ", Program: oscProgram(organ, 0.5, adsr{0.002, 0.0, 1.0, 0.05})},
		{Name: "Pluck", Program: pluckProgram(rng)},
		{Name: "Soft Pad", Program: oscProgram(saw, 0.2, adsr{0.6, 0.5, 0.7, 1.2}, 0.995, 1, 1.005)},
	}
}
