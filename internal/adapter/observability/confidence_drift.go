package observability

import (
	"log/slog"
	"math"
	"sync"
)

// ConfidenceDriftMonitor tracks how the average confidence of served
// recommendation sets moves away from its baseline within one catalog
// snapshot. The first full window after a snapshot change becomes the
// baseline; later windows are compared against it.
type ConfidenceDriftMonitor struct {
	windowSize int
	threshold  float64
	logger     *slog.Logger

	mu       sync.Mutex
	version  string
	baseline float64
	hasBase  bool
	recent   []float64
}

// NewConfidenceDriftMonitor returns a monitor. A drift above threshold
// (in confidence points) is logged at warn level.
func NewConfidenceDriftMonitor(windowSize int, threshold float64, logger *slog.Logger) *ConfidenceDriftMonitor {
	if windowSize <= 0 {
		windowSize = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfidenceDriftMonitor{windowSize: windowSize, threshold: threshold, logger: logger}
}

// Record adds one request's average confidence for catalogVersion and
// returns the current drift (0 until a baseline and a full window exist).
func (m *ConfidenceDriftMonitor) Record(catalogVersion string, avgConfidence float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if catalogVersion != m.version {
		if m.version != "" {
			ConfidenceDrift.DeleteLabelValues(m.version)
		}
		m.version = catalogVersion
		m.hasBase = false
		m.recent = m.recent[:0]
	}
	m.recent = append(m.recent, avgConfidence)
	if len(m.recent) > m.windowSize {
		m.recent = m.recent[1:]
	}
	if len(m.recent) < m.windowSize {
		return 0
	}
	avg := mean(m.recent)
	if !m.hasBase {
		m.baseline = avg
		m.hasBase = true
		m.logger.Info("confidence baseline set",
			slog.String("catalog_version", catalogVersion),
			slog.Float64("baseline", avg))
		return 0
	}
	drift := math.Abs(avg - m.baseline)
	ConfidenceDrift.WithLabelValues(catalogVersion).Set(drift)
	if drift > m.threshold {
		m.logger.Warn("confidence drift detected",
			slog.String("catalog_version", catalogVersion),
			slog.Float64("drift", drift),
			slog.Float64("threshold", m.threshold))
	}
	return drift
}

// Baseline returns the baseline of the current version, if set.
func (m *ConfidenceDriftMonitor) Baseline() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseline, m.hasBase
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
