package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/leandrodaf/midisynth/sdk/contracts"
)

func TestChooseReturnsZeroBasedIndex(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader("2\n"), &out)

	got, err := c.Choose(context.Background(), "Sounds", []string{"Piano", "Organ", "Pluck"})
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if got != 1 {
		t.Fatalf("Choose = %d, want 1", got)
	}
	for _, want := range []string{"Sounds", "1)", "Piano", "3)", "Pluck"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("menu output %q does not contain %q", out.String(), want)
		}
	}
}

func TestChooseRepromptsOnInvalidInput(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader("organ\n0\n4\n 3 \n"), &out)

	got, err := c.Choose(context.Background(), "Sounds", []string{"Piano", "Organ", "Pluck"})
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if got != 2 {
		t.Fatalf("Choose = %d, want 2", got)
	}
	if n := strings.Count(out.String(), "invalid choice"); n != 3 {
		t.Fatalf("printed %d invalid choice warnings, want 3:\n%s", n, out.String())
	}
}

func TestChooseSharesInputAcrossPrompts(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader("1\n2\n"), &out)

	first, err := c.Choose(context.Background(), "A", []string{"x", "y"})
	if err != nil || first != 0 {
		t.Fatalf("first Choose = %d, %v", first, err)
	}
	second, err := c.Choose(context.Background(), "B", []string{"x", "y"})
	if err != nil || second != 1 {
		t.Fatalf("second Choose = %d, %v", second, err)
	}
}

func TestChooseInputClosed(t *testing.T) {
	c := New(strings.NewReader(""), io.Discard)

	_, err := c.Choose(context.Background(), "Menu", []string{"Quit"})
	if !errors.Is(err, contracts.ErrSelectionCancelled) {
		t.Fatalf("Choose = %v, want ErrSelectionCancelled", err)
	}
}

func TestChooseContextCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	c := New(pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := c.Choose(ctx, "Menu", []string{"Quit"})
	if !errors.Is(err, contracts.ErrSelectionCancelled) {
		t.Fatalf("Choose = %v, want ErrSelectionCancelled", err)
	}
}

func TestChooseEmptyList(t *testing.T) {
	c := New(strings.NewReader("1\n"), io.Discard)
	if _, err := c.Choose(context.Background(), "Nothing", nil); !errors.Is(err, contracts.ErrSelectionCancelled) {
		t.Fatalf("Choose = %v, want ErrSelectionCancelled", err)
	}
}
