//go:build darwin
// +build darwin

package mididarwin

import (
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/midisynth/internal/midi/midistream"
	"github.com/leandrodaf/midisynth/sdk/contracts"
	"github.com/youpy/go-coremidi"
	"go.uber.org/atomic"
)

// presenceInterval is how often a capturing client checks that its source still exists.
const presenceInterval = time.Second

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// capture is the sink installed by StartCapture.
type capture struct {
	handler contracts.RawHandler
	onError func(error)
}

// go-coremidi cannot dispose of clients or ports, so one client and one
// input port serve every ClientMid in the process. Only the client that
// connected last receives packets.
var shared struct {
	once   sync.Once
	client coremidi.Client
	port   coremidi.InputPort
	err    error
	active atomic.Pointer[ClientMid]
}

// sharedPort creates the process-wide CoreMIDI client and input port.
func sharedPort(clientName string) (coremidi.InputPort, error) {
	shared.once.Do(func() {
		shared.client, shared.err = coremidi.NewClient(clientName)
		if shared.err != nil {
			shared.err = fmt.Errorf("%w: %v", contracts.ErrMIDIConnectionError, shared.err)
			return
		}
		shared.port, shared.err = coremidi.NewInputPort(shared.client, "Input Port", dispatch)
		if shared.err != nil {
			shared.err = fmt.Errorf("%w: create input port: %v", contracts.ErrMIDIConnectionError, shared.err)
		}
	})
	return shared.port, shared.err
}

func dispatch(source coremidi.Source, packet coremidi.Packet) {
	if m := shared.active.Load(); m != nil {
		m.handleMIDIMessage(source, packet)
	}
}

// ClientMid manages MIDI input on Darwin (macOS) systems.
// It connects the shared input port to one CoreMIDI source, forwards its
// packets to the installed handler and watches for the source disappearing.
type ClientMid struct {
	logger         contracts.Logger
	capture        atomic.Pointer[capture] // Current sink; nil when not capturing.
	inputPort      coremidi.InputPort      // Shared input port for receiving MIDI events.
	portConn       internalPortConnection  // Connection to the MIDI port.
	sourceName     string                  // Name of the connected source.
	coreMIDIConfig *contracts.CoreMIDIConfig
	mu             sync.Mutex     // Mutex for thread safety on shared resources.
	wg             sync.WaitGroup // Tracks the presence watcher.
	done           chan struct{}  // Closed by Stop.
	stopOnce       sync.Once      // Ensures Stop() is executed only once.
	errOnce        sync.Once      // Ensures onError fires at most once.
}

// NewMIDIClient initializes a new ClientMid for handling MIDI input on macOS.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	port, err := sharedPort(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Debug("CoreMIDI client ready")

	return &ClientMid{
		logger:         options.Logger,
		inputPort:      port,
		coreMIDIConfig: options.CoreMIDIConfig,
		done:           make(chan struct{}),
	}, nil
}

// ListDevices retrieves and returns available MIDI sources.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	if len(sources) == 0 {
		m.logger.Warn(contracts.ErrNoMIDIDevices.Error())
		return nil, contracts.ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(sources))
	for i, source := range sources {
		sourceEntity := source.Entity()
		devices[i] = contracts.DeviceInfo{
			ID:           i,
			Name:         source.Name(),
			EntityName:   sourceEntity.Name(),
			Manufacturer: sourceEntity.Manufacturer(),
		}
	}
	return devices, nil
}

// SelectDevice selects a MIDI source by ID and connects to it.
// If a source is already connected, it disconnects first.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if deviceID < 0 || deviceID >= len(sources) {
		m.logger.Error(contracts.ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return contracts.ErrInvalidMIDIDevice
	}

	if m.portConn != nil {
		m.portConn.Disconnect()
		m.portConn = nil
	}

	source := sources[deviceID]
	m.portConn, err = m.inputPort.Connect(source)
	if err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrMIDIConnectionError, err)
	}
	m.sourceName = source.Name()
	shared.active.Store(m)

	m.logger.Info("MIDI device connected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", m.sourceName))
	return nil
}

// handleMIDIMessage splits one CoreMIDI packet into messages and forwards
// each to the capture handler. Packets arriving after Stop find no capture
// and are dropped.
func (m *ClientMid) handleMIDIMessage(source coremidi.Source, packet coremidi.Packet) {
	c := m.capture.Load()
	if c == nil {
		return
	}
	timestamp := uint64(time.Now().UTC().UnixNano())
	midistream.Split(packet.Data, func(msg []byte) {
		c.handler(msg, timestamp)
	})
}

// StartCapture installs the handler and starts watching the source.
func (m *ClientMid) StartCapture(handler contracts.RawHandler, onError func(error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if handler == nil {
		return fmt.Errorf("StartCapture called with nil handler")
	}
	if m.portConn == nil {
		return contracts.ErrNoDeviceSelected
	}
	if !m.capture.CompareAndSwap(nil, &capture{handler: handler, onError: onError}) {
		m.logger.Warn("Capture already started")
		return nil
	}

	m.wg.Add(1)
	go m.watchSource(m.sourceName)
	m.logger.Info("Starting MIDI event capture")
	return nil
}

// watchSource reports ErrDeviceDisconnected once the source is gone.
func (m *ClientMid) watchSource(name string) {
	defer m.wg.Done()
	ticker := time.NewTicker(presenceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
		}
		if !sourcePresent(name) {
			m.fail(fmt.Errorf("%w: %s", contracts.ErrDeviceDisconnected, name))
			return
		}
	}
}

func sourcePresent(name string) bool {
	sources, err := coremidi.AllSources()
	if err != nil {
		return false
	}
	for _, s := range sources {
		if s.Name() == name {
			return true
		}
	}
	return false
}

func (m *ClientMid) fail(err error) {
	c := m.capture.Load()
	if c == nil || c.onError == nil {
		return
	}
	m.errOnce.Do(func() {
		m.logger.Warn("MIDI source lost", m.logger.Field().Error("error", err))
		c.onError(err)
	})
}

// Stop halts MIDI event capturing, disconnects from the device, and waits for ongoing processing to complete.
// This function ensures it only executes once, even if called multiple times.
func (m *ClientMid) Stop() error {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.capture.Store(nil)
		shared.active.CompareAndSwap(m, nil)
		close(m.done)
		if m.portConn != nil {
			m.portConn.Disconnect()
			m.portConn = nil
		}
		m.mu.Unlock()

		m.wg.Wait()
		m.logger.Info("MIDI capture stopped")
	})
	return nil
}
