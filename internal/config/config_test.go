package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leandrodaf/midisynth/sdk/contracts"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "midisynth.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadWithoutPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.Synth.Polyphony != 10 || cfg.Render.MaxEventsPerTick != 256 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadOverridesOnlyGivenKeys(t *testing.T) {
	path := writeConfig(t, `
midi:
  backend: serial
  device: Keystation
  filter: [note_on, note_off]
  routing:
    0: left
    9: right
  serial:
    port: /dev/ttyUSB0
audio:
  output: none
synth:
  polyphony: 4
log:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.MIDI.Backend != "serial" || cfg.MIDI.Serial.Port != "/dev/ttyUSB0" {
		t.Fatalf("midi section = %+v", cfg.MIDI)
	}
	if cfg.MIDI.Serial.Baud != 31250 {
		t.Fatalf("serial baud = %d, want the default 31250", cfg.MIDI.Serial.Baud)
	}
	if cfg.Audio.Output != OutputNone || cfg.Audio.SampleRate != 48000 {
		t.Fatalf("audio section = %+v", cfg.Audio)
	}
	if cfg.Synth.Polyphony != 4 || cfg.Synth.Gain != 0.5 {
		t.Fatalf("synth section = %+v", cfg.Synth)
	}
	if cfg.LogLevel() != contracts.DebugLevel {
		t.Fatalf("LogLevel = %v", cfg.LogLevel())
	}

	route, err := cfg.Routing()
	if err != nil {
		t.Fatalf("Routing: %v", err)
	}
	if route.SpeakerFor(0) != contracts.Left || route.SpeakerFor(9) != contracts.Right || route.SpeakerFor(3) != contracts.Both {
		t.Fatalf("routing = %v", route)
	}

	filter, err := cfg.EventFilter()
	if err != nil {
		t.Fatalf("EventFilter: %v", err)
	}
	if !filter.Allows(0x93) || filter.Allows(0xC0) {
		t.Fatalf("filter = %+v", filter)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load of a missing file succeeded")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "synth: [polyphony")
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted broken YAML")
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.MIDI.Backend = "bluetooth"
	cfg.MIDI.Filter = []string{"aftertouch"}
	cfg.MIDI.Routing = map[uint8]string{20: "left", 1: "center"}
	cfg.Audio.Output = "jack"
	cfg.Audio.SampleRate = 0
	cfg.Synth.Polyphony = -1
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted an invalid config")
	}
	if !errors.Is(err, contracts.ErrUnsupportedBackend) {
		t.Fatalf("Validate = %v, want ErrUnsupportedBackend in the chain", err)
	}
	for _, want := range []string{"midi.filter", "midi.routing", "audio.output", "audio.sample_rate", "synth.polyphony", "log.level"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("Validate error %q does not mention %s", err, want)
		}
	}
}
