package observability

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrBreakerOpen is returned by Breaker.Call while the breaker rejects calls.
var ErrBreakerOpen = errors.New("circuit breaker open")

// BreakerState is the state of a Breaker.
type BreakerState int

const (
	// BreakerClosed lets every call through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects calls until the cool-down elapses.
	BreakerOpen
	// BreakerHalfOpen lets at most probes concurrent trial calls through.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Breaker guards a remote catalog source (object storage, database) so a
// failing backend is not hammered by reload triggers.
type Breaker struct {
	name        string
	maxFailures int
	coolDown    time.Duration
	probes      int
	now         func() time.Time

	mu        sync.Mutex
	state     BreakerState
	failures  int
	successes int
	inFlight  int
	openedAt  time.Time
}

// NewBreaker returns a closed breaker that opens after maxFailures
// consecutive failures and probes again after coolDown.
func NewBreaker(name string, maxFailures int, coolDown time.Duration) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 1
	}
	return &Breaker{
		name:        name,
		maxFailures: maxFailures,
		coolDown:    coolDown,
		probes:      1,
		now:         time.Now,
	}
}

// Call runs fn unless the breaker is open. While half-open, calls beyond the
// trial allowance are rejected like an open breaker.
func (b *Breaker) Call(fn func() error) error {
	b.mu.Lock()
	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.coolDown {
		b.state = BreakerHalfOpen
		b.successes = 0
		b.inFlight = 0
	}
	if b.state == BreakerOpen || (b.state == BreakerHalfOpen && b.inFlight >= b.probes) {
		state := b.state
		b.mu.Unlock()
		RecordBreakerState(b.name, state)
		return fmt.Errorf("%w: %s", ErrBreakerOpen, b.name)
	}
	trial := b.state == BreakerHalfOpen
	if trial {
		b.inFlight++
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	if trial && b.inFlight > 0 {
		b.inFlight--
	}
	b.record(err)
	state := b.state
	b.mu.Unlock()
	RecordBreakerState(b.name, state)
	return err
}

func (b *Breaker) record(err error) {
	if err != nil {
		b.failures++
		if b.state == BreakerHalfOpen || b.failures >= b.maxFailures {
			b.state = BreakerOpen
			b.openedAt = b.now()
		}
		return
	}
	switch b.state {
	case BreakerHalfOpen:
		b.successes++
		if b.successes >= b.probes {
			b.state = BreakerClosed
			b.failures = 0
		}
	case BreakerClosed:
		b.failures = 0
	}
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset closes the breaker.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.failures = 0
	b.successes = 0
	b.inFlight = 0
}
