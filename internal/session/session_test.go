package session

import (
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/midisynth/internal/logger"
	"github.com/leandrodaf/midisynth/internal/synth"
	"github.com/leandrodaf/midisynth/sdk/contracts"
	"go.uber.org/zap/zaptest"
)

// gateSink holds the render loop inside its first write until released.
type gateSink struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGateSink() *gateSink {
	return &gateSink{entered: make(chan struct{}), release: make(chan struct{})}
}

func (s *gateSink) WriteFrames([]float32) error {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return nil
}

func (s *gateSink) Close() error { return nil }

func TestSessionDoesNotLeakQueuedMessages(t *testing.T) {
	log := logger.NewZapLoggerFrom(zaptest.NewLogger(t))
	device := contracts.DeviceInfo{Name: "Keys"}
	opts := Options{CapturePoll: time.Millisecond}

	sink := newGateSink()
	old := start(1, device, newFakeClient("Keys"), sink, synth.NewProgramTable(pianoOrgan()), opts, log)
	<-sink.entered
	for i := 0; i < 5; i++ {
		if err := old.SelectProgram(1, contracts.Both); err != nil {
			t.Fatalf("SelectProgram: %v", err)
		}
	}
	old.Reset()
	close(sink.release)
	if err := old.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if old.renderer.Applied() != 0 || old.Pending() != 5 {
		t.Fatalf("old session applied %d and kept %d, want 0 and 5", old.renderer.Applied(), old.Pending())
	}

	freshSink := newGateSink()
	close(freshSink.release)
	fresh := start(2, device, newFakeClient("Keys"), freshSink, synth.NewProgramTable(pianoOrgan()), opts, log)
	if fresh.Pending() != 0 {
		t.Fatalf("new session starts with %d queued messages", fresh.Pending())
	}
	time.Sleep(20 * time.Millisecond)
	if err := fresh.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if fresh.renderer.Applied() != 0 {
		t.Fatalf("new session applied %d messages it never received", fresh.renderer.Applied())
	}
	if st := fresh.Status(); st.Left != "Piano" || st.Right != "Piano" {
		t.Fatalf("new session status %v, want the initial program on both groups", st)
	}
}
