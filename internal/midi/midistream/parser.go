// Package midistream frames raw MIDI bytes into single messages.
package midistream

// Parser frames a raw MIDI byte stream (a DIN MIDI UART, or the payload of
// a driver packet carrying several messages) into complete messages,
// expanding running status.
//
// Stray data bytes and messages cut short by a new status byte are passed
// to emit as they are, so the decoder rejects them as malformed. System
// exclusive dumps are skipped entirely.
type Parser struct {
	emit    func(msg []byte)
	running byte // last channel status, 0 when running status is not allowed
	buf     [3]byte
	n       int
	need    int
	sysex   bool
}

// NewParser returns a parser that hands each message to emit. The slice is
// only valid for the duration of the call.
func NewParser(emit func(msg []byte)) *Parser {
	return &Parser{emit: emit}
}

// Write feeds bytes to the parser. It never fails.
func (p *Parser) Write(data []byte) (int, error) {
	for _, b := range data {
		p.feed(b)
	}
	return len(data), nil
}

func (p *Parser) feed(b byte) {
	switch {
	case b >= 0xF8:
		// Real-time messages may appear anywhere, even inside other messages.
		p.emit([]byte{b})
	case b == 0xF0:
		p.flushPartial()
		p.sysex = true
		p.running = 0
	case b == 0xF7:
		p.sysex = false
	case b >= 0xF0:
		p.flushPartial()
		p.sysex = false
		p.running = 0
		p.start(b, systemCommonLen(b))
	case b >= 0x80:
		p.flushPartial()
		p.sysex = false
		p.running = b
		p.start(b, channelLen(b))
	default:
		p.data(b)
	}
}

func (p *Parser) start(status byte, need int) {
	p.buf[0] = status
	p.n = 1
	p.need = need
	p.complete()
}

func (p *Parser) data(b byte) {
	if p.sysex {
		return
	}
	if p.n == 0 {
		if p.running == 0 {
			p.emit([]byte{b})
			return
		}
		p.buf[0] = p.running
		p.n = 1
		p.need = channelLen(p.running)
	}
	p.buf[p.n] = b
	p.n++
	p.complete()
}

func (p *Parser) complete() {
	if p.n < p.need {
		return
	}
	p.emit(p.buf[:p.n])
	p.n = 0
}

func (p *Parser) flushPartial() {
	if p.n > 0 {
		p.emit(p.buf[:p.n])
		p.n = 0
	}
}

func channelLen(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 2
	}
	return 3
}

func systemCommonLen(status byte) int {
	switch status {
	case 0xF1, 0xF3:
		return 2
	case 0xF2:
		return 3
	}
	return 1
}

// Split frames one self-contained buffer, such as a CoreMIDI packet, and
// calls emit once per message in order.
func Split(data []byte, emit func(msg []byte)) {
	_, _ = NewParser(emit).Write(data)
}
