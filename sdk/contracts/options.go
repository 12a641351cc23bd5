package contracts

// MIDICommand represents the types of MIDI commands for event filtering.
type MIDICommand byte

const (
	// NoteOn is the MIDI command for a Note On event (0x90).
	NoteOn MIDICommand = 0x90
	// NoteOff is the MIDI command for a Note Off event (0x80).
	NoteOff MIDICommand = 0x80
	// ProgramChange is the MIDI command for a Program Change event (0xC0).
	ProgramChange MIDICommand = 0xC0
)

// MIDIEventFilter allows users to specify which MIDI commands to capture.
type MIDIEventFilter struct {
	Commands []MIDICommand // List of MIDI commands to filter.
}

// Allows reports whether a status byte passes the filter. A nil filter allows everything.
func (f *MIDIEventFilter) Allows(status byte) bool {
	if f == nil {
		return true
	}
	command := status & 0xF0
	for _, allowed := range f.Commands {
		if command == byte(allowed) {
			return true
		}
	}
	return false
}

// Backend names a MIDI input implementation.
type Backend string

const (
	// NativeBackend uses CoreMIDI on macOS, winmm on Windows and rtmidi elsewhere.
	NativeBackend Backend = "native"
	// RtMidiBackend uses rtmidi through gomidi on any platform.
	RtMidiBackend Backend = "rtmidi"
	// SerialBackend reads DIN MIDI from a serial port.
	SerialBackend Backend = "serial"
)

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// SerialConfig holds configuration for serial MIDI inputs.
type SerialConfig struct {
	Port     string // Serial port to open; empty lists every port as a device.
	BaudRate int    // 31250 for a DIN MIDI UART.
}

// ClientOptions defines the configuration options for the MIDI client.
type ClientOptions struct {
	Logger          Logger           // Logger for logging events and errors.
	LogLevel        LogLevel         // Level of logging to use.
	LogFilePath     string           // File path for logging if file logging is enabled.
	MIDIEventFilter *MIDIEventFilter // Optional filter for MIDI events to capture.
	CoreMIDIConfig  *CoreMIDIConfig  // Configuration specific to CoreMIDI.
	Backend         Backend          // MIDI input implementation.
	SerialConfig    *SerialConfig    // Configuration specific to serial inputs.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger for the MIDI client.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level of the default logger. A logger given
// through WithLogger keeps its own level.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFilePath sends the default logger's output to a file. A logger
// given through WithLogger is not redirected.
func WithLogFilePath(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithMIDIEventFilter sets the MIDI event filter for the MIDI client.
func WithMIDIEventFilter(filter MIDIEventFilter) Option {
	return func(opts *ClientOptions) {
		opts.MIDIEventFilter = &filter
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration for the MIDI client.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}

// WithBackend selects the MIDI input implementation.
func WithBackend(backend Backend) Option {
	return func(opts *ClientOptions) {
		opts.Backend = backend
	}
}

// WithSerialConfig sets the serial port configuration for the serial backend.
func WithSerialConfig(config SerialConfig) Option {
	return func(opts *ClientOptions) {
		opts.SerialConfig = &config
	}
}
