package pipeline

import "go.uber.org/atomic"

// ResetFlag is a wait-free stop request shared by one session's workers.
// It only ever goes from false to true; a new session gets a new flag.
type ResetFlag struct {
	requested atomic.Bool
}

// NewResetFlag returns a flag in the not-requested state.
func NewResetFlag() *ResetFlag {
	return &ResetFlag{}
}

// Request sets the flag. It reports whether this call made the transition.
func (f *ResetFlag) Request() bool {
	return f.requested.CompareAndSwap(false, true)
}

// Requested reports whether a stop has been requested.
func (f *ResetFlag) Requested() bool {
	return f.requested.Load()
}
