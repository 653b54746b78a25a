package manager

import (
	"log"
	"runtime"
	"time"
)

// stats accumulates submission counters and logs them at a configurable
// interval, alongside heap figures so resource table churn shows up next to
// the submission cost it causes.
type stats struct {
	interval    time.Duration
	lastLog     time.Time
	submitCount int
	cpuTime     time.Duration
	memStats    runtime.MemStats
}

func newStats(interval time.Duration) *stats {
	return &stats{
		interval: interval,
		lastLog:  time.Now(),
	}
}

// tick records one submission. Logs accumulated statistics when the interval
// has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (s *stats) tick(resourceLen int, dur time.Duration) bool {
	s.submitCount++
	s.cpuTime += dur

	if s.interval <= 0 {
		return false
	}
	elapsed := time.Since(s.lastLog)
	if elapsed < s.interval {
		return false
	}

	avg := s.cpuTime / time.Duration(s.submitCount)
	runtime.ReadMemStats(&s.memStats)
	heapMB := float64(s.memStats.Alloc) / 1024 / 1024

	log.Printf("[DrawManager] Submits: %d (%.2f/s) | Avg CPU: %v | Resources: %d | Heap: %.2f MB",
		s.submitCount, float64(s.submitCount)/elapsed.Seconds(), avg, resourceLen, heapMB)

	s.submitCount = 0
	s.cpuTime = 0
	s.lastLog = time.Now()
	return true
}
