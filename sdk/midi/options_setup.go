package midi

import (
	"github.com/leandrodaf/midisynth/internal/logger"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// DefaultSerialBaudRate is the DIN MIDI line rate.
const DefaultSerialBaudRate = 31250

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify ClientOptions.
//
// Returns:
//   - contracts.ClientOptions: A structure containing the finalized client options with defaults applied.
//   - error: An error if there was an issue applying the options.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
		options.Logger.SetLevel(options.LogLevel)
		if options.LogFilePath != "" {
			options.Logger.SetDestination(contracts.FileLog, options.LogFilePath)
		}
	}
	if options.Backend == "" {
		options.Backend = contracts.NativeBackend
	}
	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "midisynth"}
	}
	if options.SerialConfig == nil {
		options.SerialConfig = &contracts.SerialConfig{}
	}
	if options.SerialConfig.BaudRate == 0 {
		options.SerialConfig.BaudRate = DefaultSerialBaudRate
	}
	return *options, nil
}
