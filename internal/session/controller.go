package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midisynth/internal/audio"
	"github.com/leandrodaf/midisynth/internal/console"
	"github.com/leandrodaf/midisynth/internal/synth"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// ClientFactory creates a fresh, unconnected MIDI input client.
type ClientFactory func() (contracts.ClientMIDI, error)

// SinkFactory opens the audio output for a new session.
type SinkFactory func() (audio.Sink, error)

// Main menu entries, in display order.
const (
	menuSound = iota
	menuDevice
	menuQuit
)

var mainMenu = []string{
	menuSound:  "Pick New Synthesizer Sound",
	menuDevice: "Pick New MIDI Device",
	menuQuit:   "Quit",
}

var retryMenu = []string{"Retry device selection", "Quit"}

// Controller runs sessions one after the other until the operator quits.
type Controller struct {
	newClient ClientFactory
	newSink   SinkFactory
	ui        console.Chooser
	logger    contracts.Logger
	opts      Options

	generation uint64

	mu      sync.Mutex
	current *Session
}

// NewController returns a controller. Nothing starts until Run.
func NewController(newClient ClientFactory, newSink SinkFactory, ui console.Chooser, logger contracts.Logger, opts Options) *Controller {
	if opts.Catalog == nil {
		opts.Catalog = synth.Catalog
	}
	return &Controller{
		newClient: newClient,
		newSink:   newSink,
		ui:        ui,
		logger:    logger,
		opts:      opts,
	}
}

// Current returns the running session, or nil between sessions.
func (c *Controller) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) setCurrent(s *Session) {
	c.mu.Lock()
	c.current = s
	c.mu.Unlock()
}

// Run builds a session, serves the menu until the device is changed, the
// session fails or the operator quits, tears the session down and starts
// over. It returns when the operator quits, the input is closed or ctx is
// done.
func (c *Controller) Run(ctx context.Context) error {
	for {
		s, err := c.acquire(ctx)
		if err != nil {
			if errors.Is(err, contracts.ErrSelectionCancelled) {
				return nil
			}
			c.logger.Error("device acquisition failed", c.logger.Field().Error("error", err))
			c.ui.Notify(fmt.Sprintf("Could not start a session: %v", err))
			choice, err := c.ui.Choose(ctx, "What now?", retryMenu)
			if err != nil || choice == 1 {
				return nil
			}
			continue
		}

		c.setCurrent(s)
		quit := c.play(ctx, s)
		c.setCurrent(nil)
		if err := s.Close(); err != nil {
			c.ui.Notify(fmt.Sprintf("Session #%d ended: %v", s.generation, err))
		}
		if quit {
			c.logger.Info("quitting", c.logger.Field().Uint64("sessions", c.generation))
			return nil
		}
	}
}

// acquire creates a client, selects a device and starts a session on it.
func (c *Controller) acquire(ctx context.Context) (*Session, error) {
	client, err := c.newClient()
	if err != nil {
		return nil, err
	}
	s, err := c.startOn(ctx, client)
	if err != nil {
		_ = client.Stop()
		return nil, err
	}
	return s, nil
}

func (c *Controller) startOn(ctx context.Context, client contracts.ClientMIDI) (*Session, error) {
	devices, err := client.ListDevices()
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, contracts.ErrNoMIDIDevices
	}

	idx, found := 0, false
	if c.generation == 0 {
		idx, found = findDevice(devices, c.opts.PreferredDevice)
	}
	if !found {
		labels := make([]string, len(devices))
		for i, d := range devices {
			labels[i] = d.Label()
		}
		if idx, err = c.ui.Choose(ctx, "Select a MIDI input device", labels); err != nil {
			return nil, err
		}
	}
	device := devices[idx]
	if err := client.SelectDevice(device.ID); err != nil {
		return nil, fmt.Errorf("select %s: %w", device.Name, err)
	}

	sink, err := c.newSink()
	if err != nil {
		return nil, fmt.Errorf("open audio output: %w", err)
	}

	c.generation++
	table := synth.NewProgramTable(c.opts.Catalog())
	return start(c.generation, device, client, sink, table, c.opts, c.logger), nil
}

// play serves the main menu. It reports whether the operator quit.
func (c *Controller) play(ctx context.Context, s *Session) bool {
	for {
		if s.Stopping() {
			return false
		}
		c.ui.Notify(s.Status().String())

		menuCtx, cancel := s.watch(ctx)
		choice, err := c.ui.Choose(menuCtx, "Main menu", mainMenu)
		if err == nil && choice == menuSound {
			err = c.pickSound(menuCtx, s)
		}
		cancel()

		if err != nil {
			select {
			case <-s.Failed():
				c.ui.Notify("The session stopped unexpectedly; pick a MIDI device again.")
				return false
			default:
			}
			if errors.Is(err, contracts.ErrSelectionCancelled) {
				return true
			}
			c.logger.Warn("menu action failed", c.logger.Field().Error("error", err))
			continue
		}

		switch choice {
		case menuSound:
		case menuDevice:
			s.Reset()
			return false
		case menuQuit:
			return true
		default:
			panic(fmt.Sprintf("session: main menu returned unknown choice %d", choice))
		}
	}
}

func (c *Controller) pickSound(ctx context.Context, s *Session) error {
	idx, err := c.ui.Choose(ctx, "Pick a synthesizer sound", s.Programs())
	if err != nil {
		return err
	}
	return s.SelectProgram(idx, contracts.Both)
}
