package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/midisynth/internal/audio"
	"github.com/leandrodaf/midisynth/internal/synth"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

type fakeClient struct {
	mu       sync.Mutex
	devices  []contracts.DeviceInfo
	listErr  error
	selected int
	onError  func(error)
	started  chan struct{}
	stops    int
}

func newFakeClient(names ...string) *fakeClient {
	c := &fakeClient{started: make(chan struct{}), selected: -1}
	for i, name := range names {
		c.devices = append(c.devices, contracts.DeviceInfo{ID: i, Name: name})
	}
	return c
}

func (c *fakeClient) ListDevices() ([]contracts.DeviceInfo, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.devices, nil
}

func (c *fakeClient) SelectDevice(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = id
	return nil
}

func (c *fakeClient) StartCapture(_ contracts.RawHandler, onError func(error)) error {
	c.mu.Lock()
	c.onError = onError
	c.mu.Unlock()
	close(c.started)
	return nil
}

func (c *fakeClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	return nil
}

func (c *fakeClient) stopCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}

// disconnect reports a lost connection once capture has started. It may run
// on any goroutine.
func (c *fakeClient) disconnect(t *testing.T) {
	select {
	case <-c.started:
	case <-time.After(2 * time.Second):
		t.Error("capture never started")
		return
	}
	c.mu.Lock()
	onError := c.onError
	c.mu.Unlock()
	onError(contracts.ErrDeviceDisconnected)
}

// clientFactory hands out one prepared client per call.
type clientFactory struct {
	mu      sync.Mutex
	clients []*fakeClient
	made    []*fakeClient
}

func (f *clientFactory) next() (contracts.ClientMIDI, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.clients) == 0 {
		return nil, fmt.Errorf("%w: no more test clients", contracts.ErrMIDIConnectionError)
	}
	c := f.clients[0]
	f.clients = f.clients[1:]
	f.made = append(f.made, c)
	return c, nil
}

func (f *clientFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.made)
}

func nullSink() (audio.Sink, error) {
	return audio.NewNullSink(48000), nil
}

func pianoOrgan() []synth.Entry {
	c := synth.Catalog()
	return []synth.Entry{
		{Name: "Piano", Program: c[0].Program},
		{Name: "Organ", Program: c[4].Program},
	}
}

// step answers one Choose call.
type step func(ctx context.Context, title string, items []string) (int, error)

type scriptedUI struct {
	t     *testing.T
	mu    sync.Mutex
	steps []step
	asked []string
	notes []string
}

func (u *scriptedUI) Choose(ctx context.Context, title string, items []string) (int, error) {
	u.mu.Lock()
	u.asked = append(u.asked, title)
	if len(u.steps) == 0 {
		u.mu.Unlock()
		u.t.Errorf("unexpected prompt %q", title)
		return 0, contracts.ErrSelectionCancelled
	}
	next := u.steps[0]
	u.steps = u.steps[1:]
	u.mu.Unlock()
	return next(ctx, title, items)
}

func (u *scriptedUI) Notify(text string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.notes = append(u.notes, text)
}

func pick(t *testing.T, wantTitle string, choice int) step {
	return func(_ context.Context, title string, _ []string) (int, error) {
		if title != wantTitle {
			t.Errorf("prompt %q, want %q", title, wantTitle)
		}
		return choice, nil
	}
}

// waitCancel blocks like an operator who never answers.
func waitCancel(t *testing.T) step {
	return func(ctx context.Context, _ string, _ []string) (int, error) {
		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("%w: %v", contracts.ErrSelectionCancelled, ctx.Err())
		case <-time.After(5 * time.Second):
			t.Error("prompt was never abandoned")
			return 0, contracts.ErrSelectionCancelled
		}
	}
}
