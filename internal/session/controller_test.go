package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/leandrodaf/midisynth/internal/logger"
	"github.com/leandrodaf/midisynth/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const (
	devicePrompt = "Select a MIDI input device"
	mainPrompt   = "Main menu"
	soundPrompt  = "Pick a synthesizer sound"
	retryPrompt  = "What now?"
)

func newTestController(t *testing.T, factory *clientFactory, ui *scriptedUI, opts Options) *Controller {
	t.Helper()
	if opts.Catalog == nil {
		opts.Catalog = pianoOrgan
	}
	opts.CapturePoll = time.Millisecond
	log := logger.NewZapLoggerFrom(zaptest.NewLogger(t))
	return NewController(factory.next, nullSink, ui, log, opts)
}

func runController(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("controller only returned because the test timed out")
	}
	if c.Current() != nil {
		t.Fatal("a session is still current after Run returned")
	}
}

func assertPrompts(t *testing.T, ui *scriptedUI, want ...string) {
	t.Helper()
	ui.mu.Lock()
	defer ui.mu.Unlock()
	if strings.Join(ui.asked, ",") != strings.Join(want, ",") {
		t.Fatalf("prompts = %q, want %q", ui.asked, want)
	}
}

func TestControllerQuitEndsWithoutNewSession(t *testing.T) {
	client := newFakeClient("Keys")
	factory := &clientFactory{clients: []*fakeClient{client, newFakeClient("Spare")}}
	ui := &scriptedUI{t: t}
	ui.steps = []step{
		pick(t, devicePrompt, 0),
		pick(t, mainPrompt, menuQuit),
	}

	runController(t, newTestController(t, factory, ui, Options{}))

	assertPrompts(t, ui, devicePrompt, mainPrompt)
	if factory.count() != 1 {
		t.Fatalf("built %d clients, want 1", factory.count())
	}
	if client.stopCount() == 0 {
		t.Fatal("client not stopped on quit")
	}
}

func TestControllerDeviceChangeAlwaysPrompts(t *testing.T) {
	first := newFakeClient("Other", "Keys")
	second := newFakeClient("Other", "Keys")
	factory := &clientFactory{clients: []*fakeClient{first, second}}
	ui := &scriptedUI{t: t}
	ui.steps = []step{
		// The first session picks the preferred device without asking.
		pick(t, mainPrompt, menuDevice),
		pick(t, devicePrompt, 1),
		pick(t, mainPrompt, menuQuit),
	}

	runController(t, newTestController(t, factory, ui, Options{PreferredDevice: "keys"}))

	assertPrompts(t, ui, mainPrompt, devicePrompt, mainPrompt)
	if factory.count() != 2 {
		t.Fatalf("built %d clients, want 2", factory.count())
	}
	if first.selected != 1 || second.selected != 1 {
		t.Fatalf("selected devices %d and %d, want 1 and 1", first.selected, second.selected)
	}
	if first.stopCount() == 0 || second.stopCount() == 0 {
		t.Fatal("a session's client was not stopped")
	}
}

func TestControllerRepromptsAfterDeviceLoss(t *testing.T) {
	first := newFakeClient("Keys")
	factory := &clientFactory{clients: []*fakeClient{first, newFakeClient("Keys")}}
	ui := &scriptedUI{t: t}
	abandoned := waitCancel(t)
	ui.steps = []step{
		pick(t, devicePrompt, 0),
		func(ctx context.Context, title string, items []string) (int, error) {
			go first.disconnect(t)
			return abandoned(ctx, title, items)
		},
		pick(t, devicePrompt, 0),
		pick(t, mainPrompt, menuQuit),
	}

	runController(t, newTestController(t, factory, ui, Options{}))

	assertPrompts(t, ui, devicePrompt, mainPrompt, devicePrompt, mainPrompt)
	ui.mu.Lock()
	notes := strings.Join(ui.notes, "\n")
	ui.mu.Unlock()
	if !strings.Contains(notes, "session #2") {
		t.Fatalf("second session never shown:\n%s", notes)
	}
	if !strings.Contains(notes, contracts.ErrDeviceDisconnected.Error()) {
		t.Fatalf("device loss not reported to the operator:\n%s", notes)
	}
}

func TestControllerSoundSelectionRebindsBoth(t *testing.T) {
	factory := &clientFactory{clients: []*fakeClient{newFakeClient("Keys")}}
	ui := &scriptedUI{t: t}
	var c *Controller
	ui.steps = []step{
		pick(t, devicePrompt, 0),
		pick(t, mainPrompt, menuSound),
		func(_ context.Context, title string, items []string) (int, error) {
			if title != soundPrompt || strings.Join(items, ",") != "Piano,Organ" {
				t.Errorf("sound prompt %q %v", title, items)
			}
			return 1, nil
		},
		func(_ context.Context, _ string, _ []string) (int, error) {
			deadline := time.Now().Add(2 * time.Second)
			for {
				st := c.Current().Status()
				if st.Left == "Organ" && st.Right == "Organ" {
					return menuQuit, nil
				}
				if time.Now().After(deadline) {
					t.Errorf("status %v, want Organ on both groups", st)
					return menuQuit, nil
				}
				time.Sleep(time.Millisecond)
			}
		},
	}
	c = newTestController(t, factory, ui, Options{})

	runController(t, c)

	assertPrompts(t, ui, devicePrompt, mainPrompt, soundPrompt, mainPrompt)
}

func TestControllerRetryAfterAcquisitionFailure(t *testing.T) {
	broken := newFakeClient()
	broken.listErr = contracts.ErrNoMIDIDevices
	factory := &clientFactory{clients: []*fakeClient{broken, newFakeClient("Keys")}}
	ui := &scriptedUI{t: t}
	ui.steps = []step{
		pick(t, retryPrompt, 0),
		pick(t, devicePrompt, 0),
		pick(t, mainPrompt, menuQuit),
	}

	runController(t, newTestController(t, factory, ui, Options{}))

	assertPrompts(t, ui, retryPrompt, devicePrompt, mainPrompt)
	if broken.stopCount() != 1 {
		t.Fatalf("failed client stopped %d times, want 1", broken.stopCount())
	}
}

func TestControllerQuitFromRetryMenu(t *testing.T) {
	factory := &clientFactory{}
	ui := &scriptedUI{t: t}
	ui.steps = []step{pick(t, retryPrompt, 1)}

	runController(t, newTestController(t, factory, ui, Options{}))

	assertPrompts(t, ui, retryPrompt)
}

func TestControllerClosedInputQuits(t *testing.T) {
	factory := &clientFactory{clients: []*fakeClient{newFakeClient("Keys")}}
	ui := &scriptedUI{t: t}
	ui.steps = []step{
		pick(t, devicePrompt, 0),
		func(context.Context, string, []string) (int, error) {
			return 0, contracts.ErrSelectionCancelled
		},
	}

	runController(t, newTestController(t, factory, ui, Options{}))

	assertPrompts(t, ui, devicePrompt, mainPrompt)
}

func TestControllerUnknownMenuChoicePanics(t *testing.T) {
	factory := &clientFactory{clients: []*fakeClient{newFakeClient("Keys")}}
	ui := &scriptedUI{t: t}
	ui.steps = []step{
		pick(t, devicePrompt, 0),
		pick(t, mainPrompt, len(mainMenu)+3),
	}
	c := NewController(factory.next, nullSink, ui, logger.NewZapLoggerFrom(zap.NewNop()), Options{Catalog: pianoOrgan})

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("unknown menu choice did not panic")
		}
		if s := c.Current(); s != nil {
			_ = s.Close()
		}
	}()
	_ = c.Run(context.Background())
}
