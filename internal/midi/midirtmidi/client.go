// Package midirtmidi reads MIDI input through rtmidi (ALSA, JACK, CoreMIDI or
// WinMM underneath) using gomidi's rtmidi driver.
package midirtmidi

import (
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/midisynth/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// rescanInterval is how often a capturing client checks that its port still exists.
const rescanInterval = time.Second

// ClientMid is an rtmidi input client bound to one port.
type ClientMid struct {
	logger  contracts.Logger
	drv     *rtmididrv.Driver
	mu      sync.Mutex
	in      drivers.In
	name    string
	stopFn  func()
	onError func(error)

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	errOnce  sync.Once
}

// NewMIDIClient opens the rtmidi driver.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("%w: rtmididrv: %v", contracts.ErrMIDIConnectionError, err)
	}
	options.Logger.Debug("rtmidi driver opened")
	return &ClientMid{
		logger: options.Logger,
		drv:    drv,
		done:   make(chan struct{}),
	}, nil
}

// ListDevices lists the rtmidi input ports.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	ins, err := m.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	if len(ins) == 0 {
		m.logger.Warn(contracts.ErrNoMIDIDevices.Error())
		return nil, contracts.ErrNoMIDIDevices
	}
	devices := make([]contracts.DeviceInfo, len(ins))
	for i, in := range ins {
		devices[i] = contracts.DeviceInfo{
			ID:         i,
			Name:       in.String(),
			EntityName: in.String(),
		}
	}
	return devices, nil
}

// SelectDevice opens the input port at deviceID, closing any previous one.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ins, err := m.drv.Ins()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI inputs: %w", err)
	}
	if deviceID < 0 || deviceID >= len(ins) {
		m.logger.Error(contracts.ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return contracts.ErrInvalidMIDIDevice
	}
	m.closeConn()

	in := ins[deviceID]
	if err := in.Open(); err != nil {
		return fmt.Errorf("%w: open %q: %v", contracts.ErrMIDIConnectionError, in.String(), err)
	}
	m.in = in
	m.name = in.String()
	m.logger.Info("MIDI device connected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", m.name))
	return nil
}

// StartCapture listens on the selected port.
func (m *ClientMid) StartCapture(handler contracts.RawHandler, onError func(error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.in == nil {
		return contracts.ErrNoDeviceSelected
	}
	if m.stopFn != nil {
		m.logger.Warn("Capture already started")
		return nil
	}
	m.onError = onError

	name := m.name
	stop, err := midi.ListenTo(m.in, func(msg midi.Message, _ int32) {
		handler(msg, uint64(time.Now().UTC().UnixNano()))
	}, midi.HandleError(func(listenErr error) {
		m.fail(fmt.Errorf("%w: %s: %v", contracts.ErrDeviceDisconnected, name, listenErr))
	}))
	if err != nil {
		return fmt.Errorf("%w: listen %q: %v", contracts.ErrMIDIConnectionError, name, err)
	}
	m.stopFn = stop

	m.wg.Add(1)
	go m.watchPort(name)
	m.logger.Info("Starting MIDI event capture", m.logger.Field().String("deviceName", name))
	return nil
}

// watchPort reports ErrDeviceDisconnected once the port has disappeared.
func (m *ClientMid) watchPort(name string) {
	defer m.wg.Done()
	ticker := time.NewTicker(rescanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
		}
		if !m.portPresent(name) {
			m.fail(fmt.Errorf("%w: %s", contracts.ErrDeviceDisconnected, name))
			return
		}
	}
}

func (m *ClientMid) portPresent(name string) bool {
	ins, err := m.drv.Ins()
	if err != nil {
		return false
	}
	for _, in := range ins {
		if in.String() == name {
			return true
		}
	}
	return false
}

func (m *ClientMid) fail(err error) {
	m.errOnce.Do(func() {
		m.logger.Warn("MIDI device lost", m.logger.Field().Error("error", err))
		if m.onError != nil {
			m.onError(err)
		}
	})
}

// closeConn stops listening and closes the port. Callers hold m.mu.
func (m *ClientMid) closeConn() {
	if m.stopFn != nil {
		m.stopFn()
		m.stopFn = nil
	}
	if m.in != nil {
		_ = m.in.Close()
		m.in = nil
	}
}

// Stop closes the port and the driver. Safe to call more than once.
func (m *ClientMid) Stop() error {
	var err error
	m.stopOnce.Do(func() {
		close(m.done)
		m.mu.Lock()
		m.closeConn()
		m.mu.Unlock()
		m.wg.Wait()
		err = m.drv.Close()
		m.logger.Info("MIDI capture stopped")
	})
	return err
}
