// Package render implements the render loop: it takes SynthMsgs from the
// session queue without ever waiting on it, applies them to the left and
// right voice groups and feeds the mixed blocks to an audio sink.
package render

import (
	"fmt"

	"github.com/leandrodaf/midisynth/internal/audio"
	"github.com/leandrodaf/midisynth/internal/pipeline"
	"github.com/leandrodaf/midisynth/internal/synth"
	"github.com/leandrodaf/midisynth/sdk/contracts"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
)

// Options tunes the render loop.
type Options struct {
	SampleRate       int     // Output sample rate in Hz.
	BlockFrames      int     // Frames rendered per tick.
	Polyphony        int     // Voices per channel group.
	Gain             float64 // Pre-clip mix gain per group.
	MaxEventsPerTick int     // Messages applied before each tick; the rest wait.
	InitialProgram   int     // Program bound to both groups at start, -1 for none.
}

// DefaultOptions returns the settings used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		SampleRate:       48000,
		BlockFrames:      256,
		Polyphony:        10,
		Gain:             0.5,
		MaxEventsPerTick: 256,
		InitialProgram:   0,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SampleRate <= 0 {
		o.SampleRate = d.SampleRate
	}
	if o.BlockFrames <= 0 {
		o.BlockFrames = d.BlockFrames
	}
	if o.Polyphony <= 0 {
		o.Polyphony = d.Polyphony
	}
	if o.Gain <= 0 {
		o.Gain = d.Gain
	}
	if o.MaxEventsPerTick <= 0 {
		o.MaxEventsPerTick = d.MaxEventsPerTick
	}
	return o
}

// Renderer is one session's render loop. Run it on its own goroutine.
type Renderer struct {
	queue  *pipeline.Queue[contracts.SynthMsg]
	table  *synth.ProgramTable
	reset  *pipeline.ResetFlag
	sink   audio.Sink
	logger contracts.Logger
	opts   Options

	left, right *synth.Group
	boundLeft   atomic.Int64
	boundRight  atomic.Int64
	applied     atomic.Uint64
	block       []float32
}

// New prepares a renderer. Nothing runs until Run is called.
func New(queue *pipeline.Queue[contracts.SynthMsg], table *synth.ProgramTable, reset *pipeline.ResetFlag,
	sink audio.Sink, logger contracts.Logger, opts Options) *Renderer {
	opts = opts.withDefaults()
	r := &Renderer{
		queue:  queue,
		table:  table,
		reset:  reset,
		sink:   sink,
		logger: logger,
		opts:   opts,
		left:   synth.NewGroup(opts.Polyphony, float64(opts.SampleRate), opts.Gain),
		right:  synth.NewGroup(opts.Polyphony, float64(opts.SampleRate), opts.Gain),
		block:  make([]float32, opts.BlockFrames*audio.Channels),
	}
	r.boundLeft.Store(-1)
	r.boundRight.Store(-1)
	return r
}

// Run renders until the reset flag is set or the sink fails. A sink failure
// sets the reset flag itself so the capture loop stops too. The sink is
// closed before Run returns.
func (r *Renderer) Run() (err error) {
	defer func() {
		err = multierr.Append(err, r.sink.Close())
	}()

	if r.opts.InitialProgram >= 0 {
		r.bind(contracts.Both, r.opts.InitialProgram)
	}
	r.logger.Info("render loop started",
		r.logger.Field().Int("sampleRate", r.opts.SampleRate),
		r.logger.Field().Int("blockFrames", r.opts.BlockFrames),
		r.logger.Field().Int("polyphony", r.opts.Polyphony))

	for !r.reset.Requested() {
		r.drain()
		r.renderBlock()
		if werr := r.sink.WriteFrames(r.block); werr != nil {
			r.reset.Request()
			r.logger.Error("audio output failed", r.logger.Field().Error("error", werr))
			return fmt.Errorf("render: write audio block: %w", werr)
		}
	}

	r.logger.Info("render loop stopped",
		r.logger.Field().Uint64("applied", r.applied.Load()),
		r.logger.Field().Int("pending", r.queue.Len()))
	return nil
}

// Bound returns the program index bound to the Left or Right group, or -1.
// It is safe to call from any goroutine.
func (r *Renderer) Bound(group contracts.Speaker) int {
	switch group {
	case contracts.Left:
		return int(r.boundLeft.Load())
	case contracts.Right:
		return int(r.boundRight.Load())
	}
	return -1
}

// Applied returns how many messages the loop has consumed.
func (r *Renderer) Applied() uint64 {
	return r.applied.Load()
}

// drain applies at most MaxEventsPerTick pending messages without waiting.
func (r *Renderer) drain() {
	for i := 0; i < r.opts.MaxEventsPerTick; i++ {
		msg, ok := r.queue.TryPop()
		if !ok {
			return
		}
		r.apply(msg)
		r.applied.Inc()
	}
}

func (r *Renderer) apply(msg contracts.SynthMsg) {
	switch msg.Kind {
	case contracts.KindNoteOn:
		r.each(msg.Speaker, func(g *synth.Group) { g.NoteOn(msg.Pitch, msg.Velocity) })
	case contracts.KindNoteOff:
		r.each(msg.Speaker, func(g *synth.Group) { g.NoteOff(msg.Pitch) })
	case contracts.KindProgramChange:
		r.bind(msg.Speaker, int(msg.Program))
	default:
		r.logger.Debug("ignoring unknown message", r.logger.Field().Int("kind", int(msg.Kind)))
	}
}

// bind looks the program up and rebinds the addressed groups. Out of range
// indices leave both groups untouched.
func (r *Renderer) bind(target contracts.Speaker, index int) {
	entry, ok := r.table.Lookup(index)
	if !ok {
		r.logger.Warn("program index out of range; ignored",
			r.logger.Field().Int("program", index),
			r.logger.Field().String("speaker", target.String()))
		return
	}
	if target.Includes(contracts.Left) {
		r.left.Bind(index, entry.Program)
		r.boundLeft.Store(int64(index))
	}
	if target.Includes(contracts.Right) {
		r.right.Bind(index, entry.Program)
		r.boundRight.Store(int64(index))
	}
	r.logger.Info("program bound",
		r.logger.Field().String("program", entry.Name),
		r.logger.Field().String("speaker", target.String()))
}

func (r *Renderer) each(target contracts.Speaker, fn func(*synth.Group)) {
	if target.Includes(contracts.Left) {
		fn(r.left)
	}
	if target.Includes(contracts.Right) {
		fn(r.right)
	}
}

func (r *Renderer) renderBlock() {
	for i := 0; i < len(r.block); i += audio.Channels {
		r.block[i] = float32(r.left.Next())
		r.block[i+1] = float32(r.right.Next())
	}
}
