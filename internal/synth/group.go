package synth

import "math"

type slot struct {
	voice    Voice
	pitch    uint8
	released bool
	started  uint64
}

// Group is the fixed-size voice pool of one channel group. It is owned by
// the render loop and must not be shared across goroutines.
type Group struct {
	program    Program
	index      int
	slots      []slot
	clock      uint64
	sampleRate float64
	gain       float64
}

// NewGroup returns a group with polyphony voices and no program bound.
func NewGroup(polyphony int, sampleRate, gain float64) *Group {
	if polyphony < 1 {
		polyphony = 1
	}
	return &Group{
		index:      -1,
		slots:      make([]slot, polyphony),
		sampleRate: sampleRate,
		gain:       gain,
	}
}

// Bind switches the group to program p and silences every voice, since
// voices built by the old program do not belong to the new signal graph.
func (g *Group) Bind(index int, p Program) {
	g.program = p
	g.index = index
	for i := range g.slots {
		g.slots[i] = slot{}
	}
}

// Index returns the bound program index, or -1.
func (g *Group) Index() int {
	return g.index
}

// NoteOn starts a voice, stealing the oldest one when the pool is full.
// Without a bound program the note is ignored.
func (g *Group) NoteOn(pitch, velocity uint8) {
	if g.program == nil {
		return
	}
	if velocity == 0 {
		g.NoteOff(pitch)
		return
	}
	g.clock++
	i := g.freeSlot()
	g.slots[i] = slot{
		voice:   g.program(Note{Pitch: pitch, Velocity: velocity, SampleRate: g.sampleRate}),
		pitch:   pitch,
		started: g.clock,
	}
}

// NoteOff releases every held voice playing pitch.
func (g *Group) NoteOff(pitch uint8) {
	for i := range g.slots {
		s := &g.slots[i]
		if s.voice != nil && !s.released && s.pitch == pitch {
			s.voice.Release()
			s.released = true
		}
	}
}

// Active returns the number of sounding voices.
func (g *Group) Active() int {
	n := 0
	for _, s := range g.slots {
		if s.voice != nil {
			n++
		}
	}
	return n
}

// Next mixes one sample of every voice and frees finished ones.
func (g *Group) Next() float64 {
	sum := 0.0
	for i := range g.slots {
		s := &g.slots[i]
		if s.voice == nil {
			continue
		}
		if s.voice.Done() {
			*s = slot{}
			continue
		}
		sum += s.voice.Next()
	}
	return math.Tanh(sum * g.gain)
}

func (g *Group) freeSlot() int {
	oldest := 0
	for i, s := range g.slots {
		if s.voice == nil || s.voice.Done() {
			return i
		}
		// Prefer stealing released voices over held ones.
		if s.released != g.slots[oldest].released {
			if s.released {
				oldest = i
			}
			continue
		}
		if s.started < g.slots[oldest].started {
			oldest = i
		}
	}
	return oldest
}
