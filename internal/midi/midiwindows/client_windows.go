//go:build windows
// +build windows

package midiwindows

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/leandrodaf/midisynth/sdk/contracts"
	"go.uber.org/atomic"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI handles
type HMIDIIN windows.Handle

// Constants for callback flags
const (
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI message types
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened
	MIM_CLOSE     = 0x3C2 // MIDI device closed
	MIM_DATA      = 0x3C3 // MIDI data received
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

// Struct representing MIDI device capabilities
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

// capture is the sink installed by StartCapture.
type capture struct {
	handler contracts.RawHandler
	onError func(error)
}

// ClientMid manages MIDI input on Windows
type ClientMid struct {
	logger   contracts.Logger
	capture  atomic.Pointer[capture]
	handle   HMIDIIN
	portConn bool
	stopping atomic.Bool
	errOnce  sync.Once
	mu       sync.Mutex
	callback uintptr
}

// Load the winmm.dll library and required functions
var (
	winmm                = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen       = winmm.NewProc("midiInOpen")
	procMidiInStart      = winmm.NewProc("midiInStart")
	procMidiInStop       = winmm.NewProc("midiInStop")
	procMidiInClose      = winmm.NewProc("midiInClose")
)

// NewMIDIClient creates a MIDI client for Windows
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Debug("MIDI client created for Windows")
	return &ClientMid{logger: options.Logger}, nil
}

// ListDevices lists the available MIDI input devices
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	numDevices := uint32(r0)
	if numDevices == 0 {
		m.logger.Warn(contracts.ErrNoMIDIDevices.Error())
		return nil, contracts.ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, 0, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			m.logger.Warn("Failed to get information for MIDI device", m.logger.Field().Int("deviceID", int(i)))
			continue
		}
		deviceName := windows.UTF16ToString(caps.szPname[:])
		devices = append(devices, contracts.DeviceInfo{
			ID:           int(i),
			Name:         deviceName,
			EntityName:   deviceName,
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
		})
	}
	return devices, nil
}

// SelectDevice opens a MIDI input device
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.portConn {
		if err := m.stopCapture(); err != nil {
			return fmt.Errorf("failed to stop previous MIDI capture: %w", err)
		}
	}

	m.callback = inputCallback()
	fdwOpen := CALLBACK_FUNCTION | MIDI_IO_STATUS

	r1, _, err := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&m.handle)),
		uintptr(deviceID),
		m.callback,
		uintptr(unsafe.Pointer(m)),
		uintptr(fdwOpen),
	)
	if r1 != 0 {
		m.logger.Error("Failed to open MIDI device", m.logger.Field().Int("deviceID", deviceID), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: device %d: %v", contracts.ErrMIDIConnectionError, deviceID, err)
	}

	m.portConn = true
	m.logger.Info("MIDI device connected", m.logger.Field().Int("deviceID", deviceID))
	return nil
}

// StartCapture installs the handler and starts the winmm input stream
func (m *ClientMid) StartCapture(handler contracts.RawHandler, onError func(error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.portConn || m.handle == 0 {
		return contracts.ErrNoDeviceSelected
	}
	if !m.capture.CompareAndSwap(nil, &capture{handler: handler, onError: onError}) {
		m.logger.Warn("Capture already started")
		return nil
	}

	r1, _, err := procMidiInStart.Call(uintptr(m.handle))
	if r1 != 0 {
		m.capture.Store(nil)
		return fmt.Errorf("%w: midiInStart: %v", contracts.ErrMIDIConnectionError, err)
	}

	m.logger.Info("MIDI capture started")
	return nil
}

// Go can only create a limited number of callbacks per process, and a new
// client is built for every session, so all clients share one.
var (
	callbackOnce sync.Once
	callbackPtr  uintptr
)

// inputCallback returns the process-wide winmm callback for midiInCallback.
func inputCallback() uintptr {
	callbackOnce.Do(func() {
		callbackPtr = windows.NewCallback(midiInCallback)
	})
	return callbackPtr
}

// midiInCallback processes incoming MIDI messages
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	m := (*ClientMid)(unsafe.Pointer(dwInstance))

	switch wMsg {
	case MIM_OPEN:
		m.logger.Debug("MIDI device opened")
	case MIM_CLOSE:
		// winmm closes the device on unplug; a close we did not ask for is a lost connection.
		if !m.stopping.Load() {
			m.fail(contracts.ErrDeviceDisconnected)
		}
	case MIM_DATA:
		c := m.capture.Load()
		if c == nil {
			return 0
		}
		data := [3]byte{
			byte(dwParam1 & 0xFF),
			byte((dwParam1 >> 8) & 0xFF),
			byte((dwParam1 >> 16) & 0xFF),
		}
		c.handler(data[:shortMessageLen(data[0])], uint64(time.Now().UTC().UnixNano()))
	case MIM_ERROR, MIM_LONGERROR:
		m.logger.Warn("MIDI driver reported an invalid message", m.logger.Field().Int("msg", int(wMsg)))
	case MIM_MOREDATA:
		m.logger.Debug("Received MIM_MOREDATA message; ignored")
	default:
		m.logger.Warn("Unknown MIDI message", m.logger.Field().Int("msg", int(wMsg)))
	}

	return 0
}

// shortMessageLen returns how many of the packed bytes belong to the message.
func shortMessageLen(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 2
	case 0xF0:
		if status == 0xF1 || status == 0xF3 {
			return 2
		}
		if status == 0xF2 {
			return 3
		}
		return 1
	}
	return 3
}

func (m *ClientMid) fail(err error) {
	c := m.capture.Load()
	if c == nil || c.onError == nil {
		return
	}
	m.errOnce.Do(func() {
		m.logger.Warn("MIDI device lost", m.logger.Field().Error("error", err))
		c.onError(err)
	})
}

// Stop terminates MIDI event capture and closes the device
func (m *ClientMid) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.portConn {
		return nil
	}

	if err := m.stopCapture(); err != nil {
		return fmt.Errorf("failed to stop MIDI capture: %w", err)
	}
	m.logger.Info("MIDI capture stopped and device closed")
	return nil
}

// stopCapture stops the capture and releases resources
func (m *ClientMid) stopCapture() error {
	if m.handle == 0 {
		return fmt.Errorf("invalid MIDI device handle")
	}
	m.stopping.Store(true)
	defer m.stopping.Store(false)

	r1, _, err := procMidiInStop.Call(uintptr(m.handle))
	if r1 != 0 {
		m.logger.Error("Failed to stop MIDI capture", m.logger.Field().Error("error", err))
		return err
	}

	r1, _, err = procMidiInClose.Call(uintptr(m.handle))
	if r1 != 0 {
		m.logger.Error("Failed to close MIDI device", m.logger.Field().Error("error", err))
		return err
	}

	m.portConn = false
	m.handle = 0
	m.capture.Store(nil)
	return nil
}
