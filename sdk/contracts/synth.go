package contracts

import "fmt"

// Speaker selects the channel group a message is addressed to.
type Speaker uint8

const (
	// Both addresses the left and the right channel group.
	Both Speaker = iota
	// Left addresses the left channel group only.
	Left
	// Right addresses the right channel group only.
	Right
)

// Includes reports whether s addresses the group g (Left or Right).
func (s Speaker) Includes(g Speaker) bool {
	return s == Both || s == g
}

func (s Speaker) String() string {
	switch s {
	case Both:
		return "both"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("speaker(%d)", uint8(s))
}

// ParseSpeaker converts a configuration name into a Speaker.
func ParseSpeaker(name string) (Speaker, error) {
	switch name {
	case "both", "":
		return Both, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return Both, fmt.Errorf("unknown speaker %q", name)
}

// MessageKind tells which fields of a SynthMsg are meaningful.
type MessageKind uint8

const (
	KindNoteOn MessageKind = iota + 1
	KindNoteOff
	KindProgramChange
)

func (k MessageKind) String() string {
	switch k {
	case KindNoteOn:
		return "note-on"
	case KindNoteOff:
		return "note-off"
	case KindProgramChange:
		return "program-change"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// SynthMsg is a MIDI-derived instruction for the render loop. It is a plain
// value: the producer builds it, pushes it and never touches it again.
type SynthMsg struct {
	Kind      MessageKind
	Speaker   Speaker // Channel group the message is addressed to.
	Channel   uint8   // MIDI channel the message arrived on (0-15).
	Pitch     uint8   // Note number for NoteOn/NoteOff.
	Velocity  uint8   // Velocity for NoteOn.
	Program   uint8   // Program index for ProgramChange.
	Timestamp uint64  // Driver timestamp, zero for operator-issued messages.
}

// NoteOnMsg builds a note-on message.
func NoteOnMsg(channel, pitch, velocity uint8, speaker Speaker) SynthMsg {
	return SynthMsg{Kind: KindNoteOn, Speaker: speaker, Channel: channel, Pitch: pitch, Velocity: velocity}
}

// NoteOffMsg builds a note-off message.
func NoteOffMsg(channel, pitch uint8, speaker Speaker) SynthMsg {
	return SynthMsg{Kind: KindNoteOff, Speaker: speaker, Channel: channel, Pitch: pitch}
}

// ProgramChangeMsg builds a program change for the given channel group.
func ProgramChangeMsg(program uint8, speaker Speaker) SynthMsg {
	return SynthMsg{Kind: KindProgramChange, Speaker: speaker, Program: program}
}

func (m SynthMsg) String() string {
	switch m.Kind {
	case KindNoteOn:
		return fmt.Sprintf("%s ch=%d pitch=%d vel=%d -> %s", m.Kind, m.Channel, m.Pitch, m.Velocity, m.Speaker)
	case KindNoteOff:
		return fmt.Sprintf("%s ch=%d pitch=%d -> %s", m.Kind, m.Channel, m.Pitch, m.Speaker)
	case KindProgramChange:
		return fmt.Sprintf("%s program=%d -> %s", m.Kind, m.Program, m.Speaker)
	}
	return m.Kind.String()
}

// Routing maps a MIDI channel (0-15) to the channel group its notes play on.
// Channels without an entry play on Both.
type Routing map[uint8]Speaker

// SpeakerFor returns the channel group for a MIDI channel.
func (r Routing) SpeakerFor(channel uint8) Speaker {
	if s, ok := r[channel]; ok {
		return s
	}
	return Both
}
