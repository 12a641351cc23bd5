// Package console is the operator's line-oriented menu: numbered choices are
// printed and the chosen number is read back from the input.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// Chooser presents numbered choices to the operator.
type Chooser interface {
	// Choose shows title and items and returns the zero-based index picked.
	// It returns contracts.ErrSelectionCancelled when ctx is done or the
	// input is closed.
	Choose(ctx context.Context, title string, items []string) (int, error)
	// Notify prints a line of status text.
	Notify(text string)
}

// Console reads choices from one input stream. A single goroutine owns the
// input, so a prompt abandoned through its context does not leave a second
// reader behind.
type Console struct {
	in  io.Reader
	out io.Writer

	startOnce sync.Once
	lines     chan string

	title  lipgloss.Style
	number lipgloss.Style
	faint  lipgloss.Style
	warn   lipgloss.Style
}

// New returns a console reading from in and writing to out.
func New(in io.Reader, out io.Writer) *Console {
	r := lipgloss.NewRenderer(out)
	return &Console{
		in:     in,
		out:    out,
		lines:  make(chan string),
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#88C0D0")),
		number: r.NewStyle().Foreground(lipgloss.Color("#EBCB8B")),
		faint:  r.NewStyle().Faint(true),
		warn:   r.NewStyle().Foreground(lipgloss.Color("#BF616A")),
	}
}

func (c *Console) start() {
	c.startOnce.Do(func() {
		go func() {
			defer close(c.lines)
			scanner := bufio.NewScanner(c.in)
			for scanner.Scan() {
				c.lines <- scanner.Text()
			}
		}()
	})
}

// Choose implements Chooser. Invalid answers re-prompt.
func (c *Console) Choose(ctx context.Context, title string, items []string) (int, error) {
	if len(items) == 0 {
		return 0, fmt.Errorf("%w: nothing to choose from", contracts.ErrSelectionCancelled)
	}
	c.start()

	var b strings.Builder
	b.WriteString(c.title.Render(title))
	b.WriteByte('\n')
	for i, item := range items {
		fmt.Fprintf(&b, "  %s %s\n", c.number.Render(strconv.Itoa(i+1)+")"), item)
	}
	fmt.Fprint(c.out, b.String())

	for {
		fmt.Fprint(c.out, c.faint.Render(fmt.Sprintf("choice [1-%d]: ", len(items))))
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return 0, fmt.Errorf("%w: %v", contracts.ErrSelectionCancelled, ctx.Err())
		case line, ok := <-c.lines:
			if !ok {
				fmt.Fprintln(c.out)
				return 0, fmt.Errorf("%w: input closed", contracts.ErrSelectionCancelled)
			}
			n, err := strconv.Atoi(strings.TrimSpace(line))
			if err == nil && n >= 1 && n <= len(items) {
				return n - 1, nil
			}
			fmt.Fprintln(c.out, c.warn.Render(fmt.Sprintf("invalid choice %q", strings.TrimSpace(line))))
		}
	}
}

// Notify implements Chooser.
func (c *Console) Notify(text string) {
	fmt.Fprintln(c.out, text)
}
