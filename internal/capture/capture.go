// Package capture implements the capture loop: it owns one session's MIDI
// input client, decodes every raw message the driver delivers and pushes the
// result onto the session queue.
package capture

import (
	"errors"
	"fmt"
	"time"

	"github.com/leandrodaf/midisynth/internal/pipeline"
	"github.com/leandrodaf/midisynth/sdk/contracts"
	sdkmidi "github.com/leandrodaf/midisynth/sdk/midi"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
)

// DefaultPollInterval is how often Run checks the reset flag.
const DefaultPollInterval = 10 * time.Millisecond

// Loop is one session's capture loop. Run it on its own goroutine.
type Loop struct {
	client contracts.ClientMIDI
	queue  *pipeline.Queue[contracts.SynthMsg]
	reset  *pipeline.ResetFlag
	route  contracts.Routing
	filter *contracts.MIDIEventFilter
	logger contracts.Logger

	PollInterval time.Duration

	pushed    atomic.Uint64
	malformed atomic.Uint64
	dropped   atomic.Uint64
}

// New prepares a capture loop for a client whose device is already selected.
// filter may be nil.
func New(client contracts.ClientMIDI, queue *pipeline.Queue[contracts.SynthMsg], reset *pipeline.ResetFlag,
	route contracts.Routing, filter *contracts.MIDIEventFilter, logger contracts.Logger) *Loop {
	return &Loop{
		client:       client,
		queue:        queue,
		reset:        reset,
		route:        route,
		filter:       filter,
		logger:       logger,
		PollInterval: DefaultPollInterval,
	}
}

// Run captures until the reset flag is set or the device connection is lost.
// A lost connection sets the reset flag and is returned. The client is
// stopped before Run returns.
func (l *Loop) Run() (err error) {
	defer func() {
		err = multierr.Append(err, l.client.Stop())
	}()

	lost := make(chan error, 1)
	onError := func(e error) {
		select {
		case lost <- e:
		default:
		}
	}
	if err := l.client.StartCapture(l.handle, onError); err != nil {
		l.reset.Request()
		return fmt.Errorf("capture: start: %w", err)
	}
	l.logger.Info("capture loop started")

	ticker := time.NewTicker(l.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case e := <-lost:
			l.reset.Request()
			l.logger.Error("MIDI input lost", l.logger.Field().Error("error", e))
			return fmt.Errorf("capture: %w", e)
		case <-ticker.C:
			if l.reset.Requested() {
				l.logger.Info("capture loop stopped",
					l.logger.Field().Uint64("pushed", l.pushed.Load()),
					l.logger.Field().Uint64("malformed", l.malformed.Load()),
					l.logger.Field().Uint64("dropped", l.dropped.Load()))
				return nil
			}
		}
	}
}

// Pushed returns the number of messages put on the queue so far.
func (l *Loop) Pushed() uint64 {
	return l.pushed.Load()
}

// handle runs on the driver's callback goroutine.
func (l *Loop) handle(data []byte, timestamp uint64) {
	if l.reset.Requested() {
		return
	}
	if len(data) > 0 && data[0] >= 0x80 && data[0] < 0xF0 && !l.filter.Allows(data[0]) {
		l.dropped.Inc()
		l.logger.Debug("MIDI message filtered", l.logger.Field().Int("status", int(data[0])))
		return
	}

	msg, err := sdkmidi.Decode(data, l.route)
	switch {
	case errors.Is(err, contracts.ErrMalformedMessage):
		l.malformed.Inc()
		l.logger.Warn("skipping malformed MIDI input",
			l.logger.Field().Error("error", err),
			l.logger.Field().Int("length", len(data)))
		return
	case err != nil:
		l.dropped.Inc()
		l.logger.Debug("MIDI message ignored", l.logger.Field().Error("error", err))
		return
	}

	msg.Timestamp = timestamp
	l.queue.Push(msg)
	l.pushed.Inc()
}
