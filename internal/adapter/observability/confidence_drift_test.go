package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidenceDriftMonitor(t *testing.T) {
	m := NewConfidenceDriftMonitor(3, 10, nil)

	for _, v := range []float64{60, 62, 64} {
		assert.Equal(t, 0.0, m.Record("v1", v))
	}
	base, ok := m.Baseline()
	assert.True(t, ok)
	assert.Equal(t, 62.0, base)

	// window becomes 62, 64, 80
	assert.InDelta(t, 6.6667, m.Record("v1", 80), 1e-3)

	// a new snapshot restarts the baseline
	assert.Equal(t, 0.0, m.Record("v2", 10))
	_, ok = m.Baseline()
	assert.False(t, ok)
}
