package audio

import (
	"errors"
	"time"
)

// ErrSinkClosed is returned by writes to a closed sink.
var ErrSinkClosed = errors.New("audio sink closed")

// NullSink discards samples at the pace a sound card at SampleRate would
// consume them.
type NullSink struct {
	sampleRate int
	deadline   time.Time
	closed     bool
}

// NewNullSink returns a wall-clock paced sink.
func NewNullSink(sampleRate int) *NullSink {
	return &NullSink{sampleRate: sampleRate}
}

func (s *NullSink) WriteFrames(samples []float32) error {
	if s.closed {
		return ErrSinkClosed
	}
	now := time.Now()
	if s.deadline.Before(now) {
		s.deadline = now
	}
	frames := len(samples) / Channels
	s.deadline = s.deadline.Add(time.Duration(frames) * time.Second / time.Duration(s.sampleRate))
	time.Sleep(time.Until(s.deadline))
	return nil
}

func (s *NullSink) Close() error {
	s.closed = true
	return nil
}
