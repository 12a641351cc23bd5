package contracts

// RawHandler receives one complete MIDI message as delivered by the device
// driver. It runs on the driver's callback goroutine and must not block.
// The data slice is only valid for the duration of the call.
type RawHandler func(data []byte, timestamp uint64)

// ClientMIDI defines an interface for MIDI input client operations.
type ClientMIDI interface {
	Stop() error                        // Stops capturing, disconnects the device and releases resources. Safe to call twice.
	ListDevices() ([]DeviceInfo, error) // Lists all available MIDI input devices.
	SelectDevice(deviceID int) error    // Selects and connects a MIDI device by its ID.
	// StartCapture starts delivering raw messages to handler. onError is
	// called at most once if the connection is lost while capturing.
	StartCapture(handler RawHandler, onError func(error)) error
}
