package esio

import (
	"sync/atomic"
	"time"
)

// Metrics tracks transfer statistics for a handle
type Metrics struct {
	// Operation counters
	Writes  atomic.Uint64 // completed write transfers
	Reads   atomic.Uint64 // completed read transfers
	Flushes atomic.Uint64 // explicit flushes

	// Byte counters, measured in bytes of the caller's buffer elements moved
	BytesWritten atomic.Uint64
	BytesRead    atomic.Uint64

	// Error counters
	WriteErrors atomic.Uint64
	ReadErrors  atomic.Uint64

	// Cumulative transfer latency
	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	// Handle lifecycle
	StartTime atomic.Int64 // handle creation timestamp (UnixNano)
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

func (m *Metrics) record(read bool, bytes int64, latency time.Duration, success bool) {
	if m == nil {
		return
	}
	switch {
	case read && success:
		m.Reads.Add(1)
		m.BytesRead.Add(uint64(bytes))
	case read:
		m.ReadErrors.Add(1)
	case success:
		m.Writes.Add(1)
		m.BytesWritten.Add(uint64(bytes))
	default:
		m.WriteErrors.Add(1)
	}
	m.TotalLatencyNs.Add(uint64(latency.Nanoseconds()))
	m.OpCount.Add(1)
}

// MetricsSnapshot is a point-in-time copy of a handle's metrics
type MetricsSnapshot struct {
	Writes       uint64 `json:"writes"`
	Reads        uint64 `json:"reads"`
	Flushes      uint64 `json:"flushes"`
	BytesWritten uint64 `json:"bytes_written"`
	BytesRead    uint64 `json:"bytes_read"`
	WriteErrors  uint64 `json:"write_errors"`
	ReadErrors   uint64 `json:"read_errors"`
	AvgLatencyNs uint64 `json:"avg_latency_ns"`
}

// Snapshot returns a consistent-enough copy for reporting
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	s := MetricsSnapshot{
		Writes:       m.Writes.Load(),
		Reads:        m.Reads.Load(),
		Flushes:      m.Flushes.Load(),
		BytesWritten: m.BytesWritten.Load(),
		BytesRead:    m.BytesRead.Load(),
		WriteErrors:  m.WriteErrors.Load(),
		ReadErrors:   m.ReadErrors.Load(),
	}
	if n := m.OpCount.Load(); n > 0 {
		s.AvgLatencyNs = m.TotalLatencyNs.Load() / n
	}
	return s
}
