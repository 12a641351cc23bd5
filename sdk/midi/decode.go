package midi

import (
	"fmt"

	"github.com/leandrodaf/midisynth/sdk/contracts"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Decode converts one raw MIDI message into a SynthMsg. Notes and program
// changes are addressed to the channel group route assigns to their MIDI
// channel.
//
// Truncated channel messages and stray data bytes yield
// contracts.ErrMalformedMessage. Well-formed messages the synthesizer does
// not use (control change, clock, sysex...) yield contracts.ErrUnhandledMessage.
func Decode(data []byte, route contracts.Routing) (contracts.SynthMsg, error) {
	if err := validate(data); err != nil {
		return contracts.SynthMsg{}, err
	}

	msg := gomidi.Message(data)
	var ch, key, vel, program uint8
	switch {
	case msg.GetNoteOn(&ch, &key, &vel) && vel > 0:
		return contracts.NoteOnMsg(ch, key, vel, route.SpeakerFor(ch)), nil
	case msg.GetNoteEnd(&ch, &key):
		return contracts.NoteOffMsg(ch, key, route.SpeakerFor(ch)), nil
	case msg.GetProgramChange(&ch, &program):
		m := contracts.ProgramChangeMsg(program, route.SpeakerFor(ch))
		m.Channel = ch
		return m, nil
	}
	return contracts.SynthMsg{}, fmt.Errorf("%w: %s", contracts.ErrUnhandledMessage, msg.String())
}

// validate checks the framing of channel voice messages.
func validate(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty message", contracts.ErrMalformedMessage)
	}
	status := data[0]
	if status < 0x80 {
		return fmt.Errorf("%w: data byte 0x%02X without status", contracts.ErrMalformedMessage, status)
	}
	want := channelMessageLen(status)
	if want == 0 {
		return nil
	}
	if len(data) < want {
		return fmt.Errorf("%w: status 0x%02X needs %d bytes, got %d", contracts.ErrMalformedMessage, status, want, len(data))
	}
	for _, b := range data[1:want] {
		if b >= 0x80 {
			return fmt.Errorf("%w: status byte 0x%02X inside data", contracts.ErrMalformedMessage, b)
		}
	}
	return nil
}

// channelMessageLen returns the length of a channel voice message including
// its status byte, or 0 for system messages.
func channelMessageLen(status byte) int {
	switch status & 0xF0 {
	case 0x80, 0x90, 0xA0, 0xB0, 0xE0:
		return 3
	case 0xC0, 0xD0:
		return 2
	}
	return 0
}
