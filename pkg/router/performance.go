package router

import (
	"sync"
	"time"

	"github.com/corepath/partner/pkg/domain"
)

// ringSize is the rolling window used for per-model averages (spec.md
// §4.5: "rolling window = last N ~= 100 samples").
const ringSize = 100

// sample is one recorded attempt outcome.
type sample struct {
	success bool
	latency float64
	cost    float64
}

// ring is a bounded, drop-oldest buffer of attempt samples for one model
// key, grounded on tarsy's worker health-tracking fields (pkg/queue/worker.go).
type ring struct {
	buf   [ringSize]sample
	count int
	next  int
}

func (r *ring) push(s sample) {
	r.buf[r.next] = s
	r.next = (r.next + 1) % ringSize
	if r.count < ringSize {
		r.count++
	}
}

func (r *ring) stats() (avgLatency, avgCost, errorRate float64, successes, failures int64) {
	var latSum, costSum float64
	for i := 0; i < r.count; i++ {
		s := r.buf[i]
		latSum += s.latency
		costSum += s.cost
		if s.success {
			successes++
		} else {
			failures++
		}
	}
	if r.count > 0 {
		avgLatency = latSum / float64(r.count)
		avgCost = costSum / float64(r.count)
		errorRate = float64(failures) / float64(r.count)
	}
	return
}

// PerformanceTracker maintains a rolling per-model performance ring and
// recomputes derived averages on every insert. A single mutex guards all
// model rings, matching the single-writer-per-component policy.
type PerformanceTracker struct {
	mu    sync.Mutex
	rings map[string]*ring
	snaps map[string]domain.ModelPerformance
}

// NewPerformanceTracker builds an empty tracker.
func NewPerformanceTracker() *PerformanceTracker {
	return &PerformanceTracker{rings: make(map[string]*ring), snaps: make(map[string]domain.ModelPerformance)}
}

func (t *PerformanceTracker) record(key string, s sample, lastError string) domain.ModelPerformance {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.rings[key]
	if !ok {
		r = &ring{}
		t.rings[key] = r
	}
	r.push(s)

	avgLatency, avgCost, errorRate, successes, failures := r.stats()
	perf := domain.ModelPerformance{
		Key:           key,
		TotalRequests: successes + failures,
		Successes:     successes,
		Failures:      failures,
		AvgLatencyMS:  avgLatency,
		AvgCost:       avgCost,
		ErrorRate:     errorRate,
		LastError:     lastError,
		LastUpdated:   time.Now(),
	}
	t.snaps[key] = perf
	return perf
}

// RecordSuccess logs a successful attempt.
func (t *PerformanceTracker) RecordSuccess(key string, latencyMS float64) domain.ModelPerformance {
	return t.record(key, sample{success: true, latency: latencyMS}, "")
}

// RecordFailure logs a failed attempt.
func (t *PerformanceTracker) RecordFailure(key string, latencyMS float64, err error) domain.ModelPerformance {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return t.record(key, sample{success: false, latency: latencyMS}, msg)
}

// Snapshot returns the last computed performance record for a model key.
func (t *PerformanceTracker) Snapshot(key string) (domain.ModelPerformance, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.snaps[key]
	return p, ok
}

// ErrorRateExceeds reports whether a model's rolling error rate has
// crossed a ceiling, used by backpressure cool-down (RouterConfig).
func (t *PerformanceTracker) ErrorRateExceeds(key string, ceiling float64) bool {
	p, ok := t.Snapshot(key)
	if !ok {
		return false
	}
	return p.ErrorRate > ceiling
}
