package audio

import (
	"fmt"
	"io"
	"sync"

	"github.com/hajimehoshi/oto/v2"
	"go.uber.org/multierr"
)

// Device is the process-wide oto context. oto allows a single context per
// process, so sessions open sinks on a shared Device.
type Device struct {
	ctx        *oto.Context
	SampleRate int
}

// OpenDevice creates the oto context and waits until the sound card is ready.
func OpenDevice(sampleRate int) (*Device, error) {
	ctx, ready, err := oto.NewContext(sampleRate, Channels, oto.FormatFloat32LE)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready
	return &Device{ctx: ctx, SampleRate: sampleRate}, nil
}

// NewSink starts a player fed through a pipe. bufferFrames sets the player's
// internal buffer, which bounds the output latency.
func (d *Device) NewSink(bufferFrames int) Sink {
	pr, pw := io.Pipe()
	player := d.ctx.NewPlayer(pr)
	if setter, ok := player.(interface{ SetBufferSize(int) }); ok && bufferFrames > 0 {
		setter.SetBufferSize(bufferFrames * Channels * 4)
	}
	player.Play()
	return &otoSink{player: player, pr: pr, pw: pw}
}

type otoSink struct {
	player    oto.Player
	pr        *io.PipeReader
	pw        *io.PipeWriter
	buf       []byte
	closeOnce sync.Once
}

func (s *otoSink) WriteFrames(samples []float32) error {
	if err := s.player.Err(); err != nil {
		return fmt.Errorf("audio player: %w", err)
	}
	if cap(s.buf) < len(samples)*4 {
		s.buf = make([]byte, len(samples)*4)
	}
	_, err := s.pw.Write(encodeFloat32LE(s.buf, samples))
	return err
}

func (s *otoSink) Close() (err error) {
	s.closeOnce.Do(func() {
		perr := s.pw.Close()
		// Unblock the player's reader before closing it.
		_ = s.pr.CloseWithError(io.EOF)
		err = multierr.Append(perr, s.player.Close())
	})
	return err
}
