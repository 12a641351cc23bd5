package synth

type stage uint8

const (
	stageAttack stage = iota
	stageDecay
	stageSustain
	stageRelease
	stageDone
)

// envelope is a linear ADSR. Times are in seconds.
type envelope struct {
	attackStep, decayStep, releaseStep float64
	sustain                            float64
	level                              float64
	stage                              stage
}

func newEnvelope(sampleRate, attack, decay, sustain, release float64) envelope {
	step := func(seconds, span float64) float64 {
		if seconds <= 0 {
			return span
		}
		return span / (seconds * sampleRate)
	}
	return envelope{
		attackStep:  step(attack, 1),
		decayStep:   step(decay, 1-sustain),
		releaseStep: step(release, 1),
		sustain:     sustain,
	}
}

func (e *envelope) next() float64 {
	switch e.stage {
	case stageAttack:
		e.level += e.attackStep
		if e.level >= 1 {
			e.level = 1
			e.stage = stageDecay
		}
	case stageDecay:
		e.level -= e.decayStep
		if e.level <= e.sustain {
			e.level = e.sustain
			e.stage = stageSustain
		}
	case stageRelease:
		e.level -= e.releaseStep
		if e.level <= 0 {
			e.level = 0
			e.stage = stageDone
		}
	}
	return e.level
}

func (e *envelope) release() {
	if e.stage != stageDone {
		e.stage = stageRelease
	}
}

func (e *envelope) done() bool {
	return e.stage == stageDone
}
