package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/leandrodaf/midisynth/internal/logger"
	"github.com/leandrodaf/midisynth/sdk/contracts"
	"github.com/leandrodaf/midisynth/sdk/midi"
)

// Logs every note and program change played on the first MIDI input.
func main() {
	log := logger.NewZapLogger()
	log.SetDestination(contracts.ConsoleLog)

	client, err := midi.NewMIDIClient(
		contracts.WithLogger(log),
		contracts.WithMIDIEventFilter(contracts.MIDIEventFilter{
			Commands: []contracts.MIDICommand{contracts.NoteOn, contracts.NoteOff, contracts.ProgramChange},
		}),
	)
	if err != nil {
		log.Error("Failed to initialize MIDI client", log.Field().Error("error", err))
		return
	}
	defer client.Stop()

	devices, err := client.ListDevices()
	if err != nil || len(devices) == 0 {
		log.Error("No MIDI devices found or error listing devices", log.Field().Error("error", err))
		return
	}
	for _, d := range devices {
		fmt.Printf("%d: %s\n", d.ID, d.Label())
	}

	if err = client.SelectDevice(devices[0].ID); err != nil {
		log.Error("Failed to select MIDI device", log.Field().Error("error", err))
		return
	}

	lost := make(chan error, 1)
	err = client.StartCapture(func(data []byte, timestamp uint64) {
		msg, err := midi.Decode(data, nil)
		if errors.Is(err, contracts.ErrUnhandledMessage) {
			return
		}
		if err != nil {
			log.Warn("Malformed MIDI input", log.Field().Error("error", err))
			return
		}
		log.Info("MIDI Event",
			log.Field().Uint64("timestamp", timestamp),
			log.Field().String("kind", msg.Kind.String()),
			log.Field().Uint8("channel", msg.Channel),
			log.Field().Uint8("pitch", msg.Pitch),
			log.Field().Uint8("velocity", msg.Velocity),
			log.Field().Uint8("program", msg.Program),
		)
	}, func(err error) { lost <- err })
	if err != nil {
		log.Error("Failed to start capture", log.Field().Error("error", err))
		return
	}

	fmt.Println("Capturing MIDI events... Press Ctrl+C to exit.")
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	select {
	case <-interrupt:
	case err := <-lost:
		log.Error("MIDI device lost", log.Field().Error("error", err))
	}
}
