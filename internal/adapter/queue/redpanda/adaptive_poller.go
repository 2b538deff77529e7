package redpanda

import (
	"math"
	"sync"
	"time"
)

// AdaptivePoller spaces out polls after fetch errors. Each consecutive
// failure grows the delay by backoffFactor up to maxInterval; a success
// resets it to zero.
type AdaptivePoller struct {
	mu                 sync.Mutex
	baseInterval       time.Duration
	maxInterval        time.Duration
	backoffFactor      float64
	consecutiveFailure int
}

// NewAdaptivePoller returns a poller whose first failure waits baseInterval.
func NewAdaptivePoller(baseInterval, maxInterval time.Duration) *AdaptivePoller {
	if maxInterval < baseInterval {
		maxInterval = baseInterval
	}
	return &AdaptivePoller{baseInterval: baseInterval, maxInterval: maxInterval, backoffFactor: 2}
}

// NextInterval is how long to wait before the next poll.
func (ap *AdaptivePoller) NextInterval() time.Duration {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	if ap.consecutiveFailure == 0 {
		return 0
	}
	d := float64(ap.baseInterval) * math.Pow(ap.backoffFactor, float64(ap.consecutiveFailure-1))
	if d > float64(ap.maxInterval) {
		return ap.maxInterval
	}
	return time.Duration(d)
}

// RecordSuccess resets the backoff.
func (ap *AdaptivePoller) RecordSuccess() {
	ap.mu.Lock()
	ap.consecutiveFailure = 0
	ap.mu.Unlock()
}

// RecordFailure grows the backoff.
func (ap *AdaptivePoller) RecordFailure() {
	ap.mu.Lock()
	ap.consecutiveFailure++
	ap.mu.Unlock()
}

// Failures is the current consecutive failure count.
func (ap *AdaptivePoller) Failures() int {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	return ap.consecutiveFailure
}
