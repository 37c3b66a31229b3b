// Package obs collects the simulator's lightweight counters and latency
// stats. Nothing here is on the critical determinism path: Metrics uses
// atomic counters, so it may be read from another goroutine while the core
// event loop keeps writing to it from a single goroutine.
package obs

import (
	"sync/atomic"
	"time"
)

// Metrics aggregates per-run counters for the matching kernel and event loop.
type Metrics struct {
	addCount            uint64
	cancelCount         uint64
	replaceCount        uint64
	fillCount           uint64
	postOnlyRejectCount uint64
	riskRejectCount     uint64
	stateWarnCount      uint64
	topThrottledCount   uint64
	unknownEventCount   uint64

	fillLatency LatencyStats
}

// NewMetrics allocates an empty metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncAdd() {
	if m != nil {
		atomic.AddUint64(&m.addCount, 1)
	}
}

func (m *Metrics) IncCancel() {
	if m != nil {
		atomic.AddUint64(&m.cancelCount, 1)
	}
}

func (m *Metrics) IncReplace() {
	if m != nil {
		atomic.AddUint64(&m.replaceCount, 1)
	}
}

func (m *Metrics) IncFill() {
	if m != nil {
		atomic.AddUint64(&m.fillCount, 1)
	}
}

func (m *Metrics) IncPostOnlyReject() {
	if m != nil {
		atomic.AddUint64(&m.postOnlyRejectCount, 1)
	}
}

func (m *Metrics) IncRiskReject() {
	if m != nil {
		atomic.AddUint64(&m.riskRejectCount, 1)
	}
}

func (m *Metrics) IncStateWarn() {
	if m != nil {
		atomic.AddUint64(&m.stateWarnCount, 1)
	}
}

func (m *Metrics) IncTopThrottled() {
	if m != nil {
		atomic.AddUint64(&m.topThrottledCount, 1)
	}
}

func (m *Metrics) IncUnknownEvent() {
	if m != nil {
		atomic.AddUint64(&m.unknownEventCount, 1)
	}
}

// ObserveFillLatency records the time from fill to strategy notification.
func (m *Metrics) ObserveFillLatency(d time.Duration) {
	if m != nil {
		m.fillLatency.Observe(d)
	}
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(atomic.LoadUint64(&l.min)),
		Max:   time.Duration(atomic.LoadUint64(&l.max)),
		Avg:   time.Duration(sum / count),
	}
}

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	AddCount            uint64
	CancelCount         uint64
	ReplaceCount        uint64
	FillCount           uint64
	PostOnlyRejectCount uint64
	RiskRejectCount     uint64
	StateWarnCount      uint64
	TopThrottledCount   uint64
	UnknownEventCount   uint64
	FillLatency         LatencySnapshot
}

// Snapshot captures the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		AddCount:            atomic.LoadUint64(&m.addCount),
		CancelCount:         atomic.LoadUint64(&m.cancelCount),
		ReplaceCount:        atomic.LoadUint64(&m.replaceCount),
		FillCount:           atomic.LoadUint64(&m.fillCount),
		PostOnlyRejectCount: atomic.LoadUint64(&m.postOnlyRejectCount),
		RiskRejectCount:     atomic.LoadUint64(&m.riskRejectCount),
		StateWarnCount:      atomic.LoadUint64(&m.stateWarnCount),
		TopThrottledCount:   atomic.LoadUint64(&m.topThrottledCount),
		UnknownEventCount:   atomic.LoadUint64(&m.unknownEventCount),
		FillLatency:         m.fillLatency.Snapshot(),
	}
}
