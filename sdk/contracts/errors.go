package contracts

import "errors"

// Errors shared by every MIDI backend and by the synthesis pipeline.
var (
	ErrNoMIDIDevices       = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice   = errors.New("invalid MIDI device")
	ErrMIDIConnectionError = errors.New("error connecting to MIDI device")
	ErrDeviceDisconnected  = errors.New("MIDI device disconnected")
	ErrNoDeviceSelected    = errors.New("no MIDI device selected")
	ErrMalformedMessage    = errors.New("malformed MIDI message")
	ErrSelectionCancelled  = errors.New("selection cancelled")
	ErrUnsupportedBackend  = errors.New("unsupported MIDI backend")
	ErrUnhandledMessage    = errors.New("unhandled MIDI message")
)
