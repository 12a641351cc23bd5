// Package session ties one MIDI device, one queue, one reset flag and one
// program table to a capture loop and a render loop, and drives the operator
// menu that starts, replaces and ends sessions.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/leandrodaf/midisynth/internal/audio"
	"github.com/leandrodaf/midisynth/internal/capture"
	"github.com/leandrodaf/midisynth/internal/pipeline"
	"github.com/leandrodaf/midisynth/internal/render"
	"github.com/leandrodaf/midisynth/internal/synth"
	"github.com/leandrodaf/midisynth/sdk/contracts"
	"go.uber.org/multierr"
)

// Options configures every session a Controller builds.
type Options struct {
	Route           contracts.Routing
	Filter          *contracts.MIDIEventFilter
	Render          render.Options
	PreferredDevice string               // Device name picked without asking, first session only.
	Catalog         func() []synth.Entry // Defaults to synth.Catalog.
	CapturePoll     time.Duration        // Defaults to capture.DefaultPollInterval.
}

// Session is one generation of the pipeline. Nothing in it is reused by the
// next session.
type Session struct {
	generation uint64
	device     contracts.DeviceInfo
	queue      *pipeline.Queue[contracts.SynthMsg]
	reset      *pipeline.ResetFlag
	table      *synth.ProgramTable
	renderer   *render.Renderer
	capture    *capture.Loop
	logger     contracts.Logger

	wg       sync.WaitGroup
	failed   chan struct{}
	failOnce sync.Once

	mu   sync.Mutex
	errs error

	closeOnce sync.Once
}

// start builds a session around a client whose device is selected and starts
// both workers.
func start(generation uint64, device contracts.DeviceInfo, client contracts.ClientMIDI, sink audio.Sink,
	table *synth.ProgramTable, opts Options, logger contracts.Logger) *Session {
	s := &Session{
		generation: generation,
		device:     device,
		queue:      pipeline.NewQueue[contracts.SynthMsg](),
		reset:      pipeline.NewResetFlag(),
		table:      table,
		logger:     logger,
		failed:     make(chan struct{}),
	}
	s.renderer = render.New(s.queue, table, s.reset, sink, logger, opts.Render)
	s.capture = capture.New(client, s.queue, s.reset, opts.Route, opts.Filter, logger)
	if opts.CapturePoll > 0 {
		s.capture.PollInterval = opts.CapturePoll
	}

	logger.Info("session started",
		logger.Field().Uint64("generation", generation),
		logger.Field().String("device", device.Name))
	s.run("render", s.renderer.Run)
	s.run("capture", s.capture.Run)
	return s
}

func (s *Session) run(name string, worker func() error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := worker()
		if err == nil {
			return
		}
		s.mu.Lock()
		s.errs = multierr.Append(s.errs, err)
		s.mu.Unlock()
		s.logger.Error("session worker failed",
			s.logger.Field().String("worker", name),
			s.logger.Field().Uint64("generation", s.generation),
			s.logger.Field().Error("error", err))
		s.failOnce.Do(func() { close(s.failed) })
	}()
}

// Failed is closed when a worker stops on its own because of an error.
func (s *Session) Failed() <-chan struct{} {
	return s.failed
}

// Reset asks both workers to stop. It does not wait for them.
func (s *Session) Reset() {
	s.reset.Request()
}

// Stopping reports whether the reset flag is set.
func (s *Session) Stopping() bool {
	return s.reset.Requested()
}

// Programs lists the program names in index order.
func (s *Session) Programs() []string {
	return s.table.Names()
}

// SelectProgram queues a program change for target. index must come from
// Programs.
func (s *Session) SelectProgram(index int, target contracts.Speaker) error {
	if index < 0 || index >= s.table.Len() {
		return fmt.Errorf("program %d out of range 0-%d", index, s.table.Len()-1)
	}
	s.queue.Push(contracts.ProgramChangeMsg(uint8(index), target))
	return nil
}

// Pending returns an approximate count of queued, unconsumed messages.
func (s *Session) Pending() int {
	return s.queue.Len()
}

// Close stops the session and waits for both workers. Messages still queued
// are dropped with the queue. The combined worker errors are returned.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.reset.Request()
		s.wg.Wait()
		s.logger.Debug("session closed",
			s.logger.Field().Uint64("generation", s.generation),
			s.logger.Field().Int("dropped", s.queue.Len()))
	})
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs
}

// Status is a snapshot of what the session is playing.
type Status struct {
	Generation uint64
	Device     string
	Left       string
	Right      string
}

func (st Status) String() string {
	return fmt.Sprintf("session #%d | device %s | left: %s | right: %s", st.Generation, st.Device, st.Left, st.Right)
}

// Status reads the current bindings without touching the render loop state.
func (s *Session) Status() Status {
	return Status{
		Generation: s.generation,
		Device:     s.device.Label(),
		Left:       s.programName(s.renderer.Bound(contracts.Left)),
		Right:      s.programName(s.renderer.Bound(contracts.Right)),
	}
}

func (s *Session) programName(index int) string {
	if e, ok := s.table.Lookup(index); ok {
		return e.Name
	}
	return "-"
}

// watch returns a context that is cancelled when parent is done or the
// session fails.
func (s *Session) watch(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-s.failed:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func findDevice(devices []contracts.DeviceInfo, name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for i, d := range devices {
		if strings.EqualFold(d.Name, name) {
			return i, true
		}
	}
	for i, d := range devices {
		if strings.Contains(strings.ToLower(d.Label()), strings.ToLower(name)) {
			return i, true
		}
	}
	return 0, false
}
