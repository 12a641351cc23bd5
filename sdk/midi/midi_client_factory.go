package midi

import (
	"fmt"
	"runtime"

	"github.com/leandrodaf/midisynth/internal/midi/mididarwin"
	"github.com/leandrodaf/midisynth/internal/midi/midirtmidi"
	"github.com/leandrodaf/midisynth/internal/midi/midiserial"
	"github.com/leandrodaf/midisynth/internal/midi/midiwindows"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

type initializer func(*contracts.ClientOptions) (contracts.ClientMIDI, error)

// nativeInitializers maps OS names to the client using the OS MIDI API.
// Other systems use rtmidi as their native backend.
var nativeInitializers = map[string]initializer{
	"darwin":  mididarwin.NewMIDIClient,  // macOS (Darwin) CoreMIDI client initializer.
	"windows": midiwindows.NewMIDIClient, // Windows winmm client initializer.
}

// backendInitializers maps explicit backend names to their initializer.
var backendInitializers = map[contracts.Backend]initializer{
	contracts.RtMidiBackend: midirtmidi.NewMIDIClient,
	contracts.SerialBackend: midiserial.NewMIDIClient,
}

// NewClient initializes a MIDI client for opts.Backend.
// It returns contracts.ErrUnsupportedBackend for unknown backend names.
// When opts.MIDIEventFilter is set, the client only delivers the allowed
// channel messages.
//
// opts *contracts.ClientOptions: Configuration options for the MIDI client.
//
// Returns:
//   - contracts.ClientMIDI: An instance of the MIDI client.
//   - error: An error if the backend is unknown or if initialization fails.
func NewClient(opts *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	newClient, err := resolve(opts.Backend, runtime.GOOS)
	if err != nil {
		return nil, err
	}
	client, err := newClient(opts)
	if err != nil {
		return nil, err
	}
	return withEventFilter(client, opts.MIDIEventFilter), nil
}

func resolve(backend contracts.Backend, goos string) (initializer, error) {
	if backend == "" || backend == contracts.NativeBackend {
		if newClient, exists := nativeInitializers[goos]; exists {
			return newClient, nil
		}
		return midirtmidi.NewMIDIClient, nil
	}
	if newClient, exists := backendInitializers[backend]; exists {
		return newClient, nil
	}
	return nil, fmt.Errorf("%w: %s", contracts.ErrUnsupportedBackend, backend)
}
