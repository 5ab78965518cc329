package server

import "sync"

// Trigger is the unified shutdown trigger: a one-shot flag that resolves
// exactly once, from whichever external source fires first (signal delivery
// or the cross-process shutdown flag). A second Set is a no-op.
type Trigger struct {
	once sync.Once
	ch   chan struct{}
}

// NewTrigger returns an unresolved trigger.
func NewTrigger() *Trigger {
	return &Trigger{ch: make(chan struct{})}
}

// Set resolves the trigger. Idempotent and safe to call from a signal
// handling goroutine: it only closes a channel.
func (t *Trigger) Set() {
	t.once.Do(func() {
		close(t.ch)
	})
}

// Done returns a channel closed once the trigger has resolved.
func (t *Trigger) Done() <-chan struct{} {
	return t.ch
}

// IsSet reports whether the trigger has resolved.
func (t *Trigger) IsSet() bool {
	select {
	case <-t.ch:
		return true
	default:
		return false
	}
}
