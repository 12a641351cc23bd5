//go:build !darwin
// +build !darwin

package mididarwin

import (
	"fmt"

	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// DummyMIDIClient stands in for the CoreMIDI client on other systems.
type DummyMIDIClient struct {
	logger contracts.Logger
}

func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Info("Using dummy MIDI client for non-macOS system")
	return &DummyMIDIClient{
		logger: options.Logger,
	}, nil
}

func (m *DummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy MIDI client")
	return nil, fmt.Errorf("%w: CoreMIDI is only available on macOS", contracts.ErrUnsupportedBackend)
}

func (m *DummyMIDIClient) SelectDevice(deviceID int) error {
	m.logger.Warn("SelectDevice called on dummy MIDI client")
	return fmt.Errorf("%w: CoreMIDI is only available on macOS", contracts.ErrUnsupportedBackend)
}

func (m *DummyMIDIClient) StartCapture(handler contracts.RawHandler, onError func(error)) error {
	m.logger.Warn("StartCapture called on dummy MIDI client")
	return fmt.Errorf("%w: CoreMIDI is only available on macOS", contracts.ErrUnsupportedBackend)
}

func (m *DummyMIDIClient) Stop() error {
	m.logger.Warn("Stop called on dummy MIDI client")
	return nil
}
