// Package config loads the midisynth YAML configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/leandrodaf/midisynth/sdk/contracts"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Audio outputs.
const (
	OutputOto  = "oto"
	OutputNone = "none"
)

// Config is the whole configuration file. Every field is optional.
type Config struct {
	MIDI   MIDI   `yaml:"midi"`
	Audio  Audio  `yaml:"audio"`
	Synth  Synth  `yaml:"synth"`
	Render Render `yaml:"render"`
	Log    Log    `yaml:"log"`
}

type MIDI struct {
	Backend    string           `yaml:"backend"`
	ClientName string           `yaml:"client_name"`
	Device     string           `yaml:"device"` // Auto-selected for the first session when present.
	Filter     []string         `yaml:"filter"` // note_on, note_off, program_change
	Routing    map[uint8]string `yaml:"routing"`
	Serial     Serial           `yaml:"serial"`
}

type Serial struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

type Audio struct {
	Output       string `yaml:"output"`
	SampleRate   int    `yaml:"sample_rate"`
	BufferFrames int    `yaml:"buffer_frames"`
}

type Synth struct {
	Polyphony      int     `yaml:"polyphony"`
	Gain           float64 `yaml:"gain"`
	InitialProgram int     `yaml:"initial_program"`
}

type Render struct {
	MaxEventsPerTick int `yaml:"max_events_per_tick"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		MIDI: MIDI{
			Backend:    string(contracts.NativeBackend),
			ClientName: "midisynth",
			Serial:     Serial{Baud: 31250},
		},
		Audio: Audio{
			Output:       OutputOto,
			SampleRate:   48000,
			BufferFrames: 256,
		},
		Synth: Synth{
			Polyphony: 10,
			Gain:      0.5,
		},
		Render: Render{MaxEventsPerTick: 256},
		Log: Log{
			Level: "info",
			File:  "midisynth.log",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	switch contracts.Backend(c.MIDI.Backend) {
	case contracts.NativeBackend, contracts.RtMidiBackend, contracts.SerialBackend:
	default:
		errs = append(errs, fmt.Errorf("midi.backend: %w: %q", contracts.ErrUnsupportedBackend, c.MIDI.Backend))
	}
	if _, err := c.EventFilter(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Routing(); err != nil {
		errs = append(errs, err)
	}
	if c.MIDI.Serial.Baud <= 0 {
		errs = append(errs, fmt.Errorf("midi.serial.baud must be positive, got %d", c.MIDI.Serial.Baud))
	}
	if c.Audio.Output != OutputOto && c.Audio.Output != OutputNone {
		errs = append(errs, fmt.Errorf("audio.output: unknown output %q", c.Audio.Output))
	}
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate))
	}
	if c.Audio.BufferFrames <= 0 {
		errs = append(errs, fmt.Errorf("audio.buffer_frames must be positive, got %d", c.Audio.BufferFrames))
	}
	if c.Synth.Polyphony <= 0 {
		errs = append(errs, fmt.Errorf("synth.polyphony must be positive, got %d", c.Synth.Polyphony))
	}
	if c.Synth.Gain <= 0 {
		errs = append(errs, fmt.Errorf("synth.gain must be positive, got %v", c.Synth.Gain))
	}
	if c.Render.MaxEventsPerTick <= 0 {
		errs = append(errs, fmt.Errorf("render.max_events_per_tick must be positive, got %d", c.Render.MaxEventsPerTick))
	}
	if _, ok := contracts.ParseLogLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	return multierr.Combine(errs...)
}

var filterCommands = map[string]contracts.MIDICommand{
	"note_on":        contracts.NoteOn,
	"note_off":       contracts.NoteOff,
	"program_change": contracts.ProgramChange,
}

// EventFilter converts midi.filter. It returns nil when no filter is set.
func (c Config) EventFilter() (*contracts.MIDIEventFilter, error) {
	if len(c.MIDI.Filter) == 0 {
		return nil, nil
	}
	filter := &contracts.MIDIEventFilter{}
	for _, name := range c.MIDI.Filter {
		cmd, ok := filterCommands[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("midi.filter: unknown command %q", name)
		}
		filter.Commands = append(filter.Commands, cmd)
	}
	return filter, nil
}

// Routing converts midi.routing.
func (c Config) Routing() (contracts.Routing, error) {
	route := contracts.Routing{}
	for ch, name := range c.MIDI.Routing {
		if ch > 15 {
			return nil, fmt.Errorf("midi.routing: channel %d out of range 0-15", ch)
		}
		speaker, err := contracts.ParseSpeaker(strings.ToLower(name))
		if err != nil {
			return nil, fmt.Errorf("midi.routing: channel %d: %w", ch, err)
		}
		route[ch] = speaker
	}
	return route, nil
}

// LogLevel returns the parsed log.level, Info when it is invalid.
func (c Config) LogLevel() contracts.LogLevel {
	level, _ := contracts.ParseLogLevel(c.Log.Level)
	return level
}
