// Package breaker guards non-essential Firestore writes once the project has hit
// a quota. It replaces a process-wide "quota exceeded" flag with an explicit
// state machine that is carried through context like the logger.
package breaker

import (
	"sync"
	"time"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker is safe for concurrent use.
type Breaker struct {
	mu       sync.Mutex
	state    State
	openedAt time.Time
	probing  bool
	cooldown time.Duration
	trip     func(error) bool
	clockNow func() time.Time
}

// New returns a closed breaker. trip decides which errors open it; cooldown is how
// long it stays open before a single probe is allowed through.
func New(cooldown time.Duration, trip func(error) bool) *Breaker {
	return &Breaker{
		cooldown: cooldown,
		trip:     trip,
		clockNow: time.Now,
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.state
}

// Allow reports whether a non-essential write may go ahead. In HalfOpen only one
// caller gets through until Success or Record settles the probe.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()

	switch b.state {
	case Closed:
		return true
	case HalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return false
	}
}

// Record inspects a store error and opens the breaker when it is a tripping error.
// A nil error and any non-tripping error count as success: the store answered,
// so a half-open probe is settled either way.
func (b *Breaker) Record(err error) {
	if err == nil || b.trip == nil || !b.trip(err) {
		b.Success()
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Open
	b.openedAt = b.clockNow()
	b.probing = false
}

func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == HalfOpen {
		b.state = Closed
		b.probing = false
	}
}

// Reset clears the breaker regardless of its state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.probing = false
	b.openedAt = time.Time{}
}

// advance moves Open to HalfOpen once the cooldown has elapsed. Callers hold mu.
func (b *Breaker) advance() {
	if b.state == Open && b.clockNow().Sub(b.openedAt) >= b.cooldown {
		b.state = HalfOpen
		b.probing = false
	}
}
