// Command midisynth plays live MIDI input through the built-in synthesizer
// and lets the operator switch sounds and devices from a console menu.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/leandrodaf/midisynth/internal/audio"
	"github.com/leandrodaf/midisynth/internal/config"
	"github.com/leandrodaf/midisynth/internal/console"
	"github.com/leandrodaf/midisynth/internal/logger"
	"github.com/leandrodaf/midisynth/internal/render"
	"github.com/leandrodaf/midisynth/internal/session"
	"github.com/leandrodaf/midisynth/sdk/contracts"
	sdkmidi "github.com/leandrodaf/midisynth/sdk/midi"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	backend := flag.String("backend", "", "MIDI backend: native, rtmidi or serial")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn or error")
	logFile := flag.String("log-file", "", "log file; \"-\" logs to stderr")
	output := flag.String("audio", "", "audio output: oto or none")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *backend != "" {
		cfg.MIDI.Backend = *backend
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	if *output != "" {
		cfg.Audio.Output = *output
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		return 2
	}

	log := logger.NewZapLogger()
	log.SetLevel(cfg.LogLevel())
	if cfg.Log.File != "-" {
		log.SetDestination(contracts.FileLog, cfg.Log.File)
	}
	if z, ok := log.(*logger.ZapLogger); ok {
		defer func() { _ = z.Sync() }()
	}

	// Validate has already checked both.
	route, _ := cfg.Routing()
	filter, _ := cfg.EventFilter()

	newClient := func() (contracts.ClientMIDI, error) {
		return sdkmidi.NewMIDIClient(
			contracts.WithLogger(log),
			contracts.WithBackend(contracts.Backend(cfg.MIDI.Backend)),
			contracts.WithCoreMIDIConfig(contracts.CoreMIDIConfig{ClientName: cfg.MIDI.ClientName}),
			contracts.WithSerialConfig(contracts.SerialConfig{Port: cfg.MIDI.Serial.Port, BaudRate: cfg.MIDI.Serial.Baud}),
		)
	}

	newSink, err := sinkFactory(cfg)
	if err != nil {
		log.Error("Failed to open audio output", log.Field().Error("error", err))
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctl := session.NewController(newClient, newSink, console.New(os.Stdin, os.Stdout), log, session.Options{
		Route:           route,
		Filter:          filter,
		PreferredDevice: cfg.MIDI.Device,
		Render: render.Options{
			SampleRate:       cfg.Audio.SampleRate,
			BlockFrames:      cfg.Audio.BufferFrames,
			Polyphony:        cfg.Synth.Polyphony,
			Gain:             cfg.Synth.Gain,
			MaxEventsPerTick: cfg.Render.MaxEventsPerTick,
			InitialProgram:   cfg.Synth.InitialProgram,
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info("midisynth started",
		log.Field().String("backend", cfg.MIDI.Backend),
		log.Field().String("audio", cfg.Audio.Output))
	if err := ctl.Run(ctx); err != nil {
		log.Error("midisynth stopped", log.Field().Error("error", err))
		return 1
	}
	return 0
}

// sinkFactory opens the sound card once; every session gets its own player on it.
func sinkFactory(cfg config.Config) (session.SinkFactory, error) {
	if cfg.Audio.Output == config.OutputNone {
		return func() (audio.Sink, error) {
			return audio.NewNullSink(cfg.Audio.SampleRate), nil
		}, nil
	}
	device, err := audio.OpenDevice(cfg.Audio.SampleRate)
	if err != nil {
		return nil, err
	}
	return func() (audio.Sink, error) {
		return device.NewSink(cfg.Audio.BufferFrames), nil
	}, nil
}
