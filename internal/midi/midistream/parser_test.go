package midistream

import (
	"bytes"
	"testing"
)

func collect(t *testing.T, stream ...byte) [][]byte {
	t.Helper()
	var got [][]byte
	p := NewParser(func(msg []byte) {
		got = append(got, append([]byte(nil), msg...))
	})
	if _, err := p.Write(stream); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return got
}

func assertMessages(t *testing.T, got [][]byte, want ...[]byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d messages % X, want %d % X", len(got), got, len(want), want)
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("message %d = % X, want % X", i, got[i], want[i])
		}
	}
}

func TestParserExpandsRunningStatus(t *testing.T) {
	got := collect(t, 0x90, 60, 100, 62, 100, 60, 0)
	assertMessages(t, got,
		[]byte{0x90, 60, 100},
		[]byte{0x90, 62, 100},
		[]byte{0x90, 60, 0},
	)
}

func TestParserTwoByteMessages(t *testing.T) {
	got := collect(t, 0xC1, 5, 7)
	assertMessages(t, got,
		[]byte{0xC1, 5},
		[]byte{0xC1, 7},
	)
}

func TestParserPassesRealtimeThrough(t *testing.T) {
	got := collect(t, 0x90, 60, 0xF8, 100)
	assertMessages(t, got,
		[]byte{0xF8},
		[]byte{0x90, 60, 100},
	)
}

func TestParserSkipsSysex(t *testing.T) {
	got := collect(t, 0xF0, 0x7E, 0x7F, 0x06, 0x01, 0xF7, 0x80, 60, 0)
	assertMessages(t, got, []byte{0x80, 60, 0})
}

func TestParserSysexCancelsRunningStatus(t *testing.T) {
	got := collect(t, 0x90, 60, 100, 0xF0, 0x01, 0xF7, 61, 100)
	assertMessages(t, got,
		[]byte{0x90, 60, 100},
		[]byte{61},
		[]byte{100},
	)
}

func TestParserEmitsTruncatedMessage(t *testing.T) {
	got := collect(t, 0x90, 60, 0x80, 60, 0)
	assertMessages(t, got,
		[]byte{0x90, 60},
		[]byte{0x80, 60, 0},
	)
}

func TestParserStrayDataWithoutStatus(t *testing.T) {
	got := collect(t, 0x40, 0xC0, 3)
	assertMessages(t, got,
		[]byte{0x40},
		[]byte{0xC0, 3},
	)
}

func TestParserSystemCommon(t *testing.T) {
	got := collect(t, 0xF2, 0x10, 0x20, 0xF6, 0x05)
	assertMessages(t, got,
		[]byte{0xF2, 0x10, 0x20},
		[]byte{0xF6},
		[]byte{0x05},
	)
}

func TestSplitPacketWithSeveralMessages(t *testing.T) {
	cases := map[string][]byte{
		"explicit status": {0x90, 60, 100, 0x90, 64, 100},
		"running status":  {0x90, 60, 100, 64, 100},
	}
	for name, packet := range cases {
		t.Run(name, func(t *testing.T) {
			var got [][]byte
			Split(packet, func(msg []byte) {
				got = append(got, append([]byte(nil), msg...))
			})
			assertMessages(t, got,
				[]byte{0x90, 60, 100},
				[]byte{0x90, 64, 100},
			)
		})
	}
}

func TestSplitNoteOffThenNoteOn(t *testing.T) {
	var got [][]byte
	Split([]byte{0x80, 60, 0, 0x90, 62, 90}, func(msg []byte) {
		got = append(got, append([]byte(nil), msg...))
	})
	assertMessages(t, got,
		[]byte{0x80, 60, 0},
		[]byte{0x90, 62, 90},
	)
}
