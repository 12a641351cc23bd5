// Package midiserial reads MIDI from a serial port, e.g. a DIN MIDI
// interface on a USB UART running at 31250 baud.
package midiserial

import (
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/midisynth/internal/midi/midistream"
	"github.com/leandrodaf/midisynth/sdk/contracts"
	"go.bug.st/serial"
)

// readTimeout bounds each blocking read so Stop is noticed promptly.
const readTimeout = 100 * time.Millisecond

// ClientMid captures MIDI bytes from one serial port.
type ClientMid struct {
	logger contracts.Logger
	config contracts.SerialConfig

	mu       sync.Mutex
	port     serial.Port
	name     string
	started  bool
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	errOnce  sync.Once
}

// NewMIDIClient creates a serial MIDI client. Nothing is opened until SelectDevice.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	return &ClientMid{
		logger: options.Logger,
		config: *options.SerialConfig,
		done:   make(chan struct{}),
	}, nil
}

func (m *ClientMid) portNames() ([]string, error) {
	if m.config.Port != "" {
		return []string{m.config.Port}, nil
	}
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}
	return ports, nil
}

// ListDevices lists the configured port, or every serial port when none is configured.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	ports, err := m.portNames()
	if err != nil {
		return nil, err
	}
	if len(ports) == 0 {
		m.logger.Warn(contracts.ErrNoMIDIDevices.Error())
		return nil, contracts.ErrNoMIDIDevices
	}
	devices := make([]contracts.DeviceInfo, len(ports))
	for i, name := range ports {
		devices[i] = contracts.DeviceInfo{
			ID:           i,
			Name:         name,
			EntityName:   name,
			Manufacturer: fmt.Sprintf("serial %d baud", m.config.BaudRate),
		}
	}
	return devices, nil
}

// SelectDevice opens the serial port at deviceID.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ports, err := m.portNames()
	if err != nil {
		return err
	}
	if deviceID < 0 || deviceID >= len(ports) {
		return contracts.ErrInvalidMIDIDevice
	}
	if m.started {
		return fmt.Errorf("%w: capture already running", contracts.ErrMIDIConnectionError)
	}
	if m.port != nil {
		_ = m.port.Close()
		m.port = nil
	}

	name := ports[deviceID]
	port, err := serial.Open(name, &serial.Mode{BaudRate: m.config.BaudRate})
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", contracts.ErrMIDIConnectionError, name, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("%w: %s: %v", contracts.ErrMIDIConnectionError, name, err)
	}
	_ = port.ResetInputBuffer()

	m.port = port
	m.name = name
	m.logger.Info("Serial MIDI port opened",
		m.logger.Field().String("port", name),
		m.logger.Field().Int("baud", m.config.BaudRate))
	return nil
}

// StartCapture starts the read loop on the selected port.
func (m *ClientMid) StartCapture(handler contracts.RawHandler, onError func(error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.port == nil {
		return contracts.ErrNoDeviceSelected
	}
	if m.started {
		m.logger.Warn("Capture already started")
		return nil
	}
	m.started = true

	m.wg.Add(1)
	go m.readLoop(m.port, handler, onError)
	return nil
}

func (m *ClientMid) readLoop(port serial.Port, handler contracts.RawHandler, onError func(error)) {
	defer m.wg.Done()

	parser := midistream.NewParser(func(msg []byte) {
		handler(msg, uint64(time.Now().UTC().UnixNano()))
	})
	buf := make([]byte, 256)
	for {
		n, err := port.Read(buf)
		select {
		case <-m.done:
			return
		default:
		}
		if err != nil {
			m.errOnce.Do(func() {
				m.logger.Warn("Serial MIDI port lost", m.logger.Field().Error("error", err))
				if onError != nil {
					onError(fmt.Errorf("%w: %s: %v", contracts.ErrDeviceDisconnected, m.name, err))
				}
			})
			return
		}
		_, _ = parser.Write(buf[:n])
	}
}

// Stop ends the read loop and closes the port. Safe to call more than once.
func (m *ClientMid) Stop() error {
	var err error
	m.stopOnce.Do(func() {
		close(m.done)
		m.mu.Lock()
		if m.port != nil {
			err = m.port.Close()
			m.port = nil
		}
		m.mu.Unlock()
		m.wg.Wait()
		m.logger.Info("Serial MIDI capture stopped", m.logger.Field().String("port", m.name))
	})
	return err
}
