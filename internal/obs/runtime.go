package obs

import (
	"runtime"
	"strconv"
	"time"

	"github.com/yanun0323/logs"
)

// RuntimeSampler tracks heap/GC deltas between two ReadMemStats calls, used
// by the event loop's progress log to report memory pressure on long runs
// without pulling in a profiling sidecar for every invocation.
type RuntimeSampler struct {
	buf        [1024]byte
	prev, curr runtime.MemStats
	prevAt     time.Time
	currAt     time.Time
}

// Sample swaps in a fresh runtime.MemStats reading.
func (s *RuntimeSampler) Sample() {
	s.prev, s.curr = s.curr, s.prev
	s.prevAt = s.currAt
	s.currAt = time.Now()
	runtime.ReadMemStats(&s.curr)
	if s.prevAt.IsZero() {
		s.prevAt = s.currAt
	}
}

// LogLine renders the delta since the previous Sample as a single log line
// through the shared logging sink, rather than writing to stdout directly.
func (s *RuntimeSampler) LogLine() {
	line := s.buf[:0]

	dt := s.currAt.Sub(s.prevAt).Seconds()
	if dt <= 0 {
		dt = 1
	}

	line = append(line, "heap_alloc="...)
	b, unit := bytesCarry(s.curr.HeapAlloc)
	line = strconv.AppendUint(line, b, 10)
	line = append(line, unit...)

	line = append(line, " heap_objects="...)
	line = strconv.AppendUint(line, s.curr.HeapObjects, 10)

	line = append(line, " alloc_rate="...)
	rate := float64(s.curr.TotalAlloc-s.prev.TotalAlloc) / dt
	rb, runit := bytesCarryFloat(rate)
	line = strconv.AppendFloat(line, rb, 'f', 2, 64)
	line = append(line, runit...)
	line = append(line, "/s"...)

	line = append(line, " gc_runs="...)
	line = strconv.AppendUint(line, uint64(s.curr.NumGC-s.prev.NumGC), 10)

	logs.Infof("%s", string(line))
}

const carryThreshold = 1 << 15

func bytesCarry(value uint64) (uint64, string) {
	if value < carryThreshold {
		return value, "B"
	}
	value >>= 10
	if value < carryThreshold {
		return value, "KB"
	}
	value >>= 10
	if value < carryThreshold {
		return value, "MB"
	}
	return value >> 10, "GB"
}

func bytesCarryFloat(value float64) (float64, string) {
	if value < float64(carryThreshold) {
		return value, "B"
	}
	value /= 1024
	if value < float64(carryThreshold) {
		return value, "KB"
	}
	value /= 1024
	if value < float64(carryThreshold) {
		return value, "MB"
	}
	return value / 1024, "GB"
}
