//go:build windows
// +build windows

package midiwindows

import "testing"

func TestInputCallbackIsCreatedOnce(t *testing.T) {
	first := inputCallback()
	if first == 0 {
		t.Fatal("no callback created")
	}
	for i := 0; i < 5000; i++ {
		if got := inputCallback(); got != first {
			t.Fatalf("call %d returned a new callback", i)
		}
	}
}
