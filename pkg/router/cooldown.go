package router

import (
	"sync"
	"time"
)

// MutableRegistry is the subset of config.ModelRegistry the cool-down
// manager needs to disable/re-enable a descriptor.
type MutableRegistry interface {
	SetAvailable(key string, available bool)
}

// CoolDownManager disables a model once its rolling error rate crosses
// RouterConfig.ErrorRateCeiling and automatically re-enables it after
// RouterConfig.CoolDownPeriod has elapsed, a simple circuit-breaker over
// the PerformanceTracker's ring statistics.
type CoolDownManager struct {
	mu       sync.Mutex
	registry MutableRegistry
	perf     *PerformanceTracker
	ceiling  float64
	period   time.Duration
	until    map[string]time.Time
}

// NewCoolDownManager wires a tracker and registry together.
func NewCoolDownManager(registry MutableRegistry, perf *PerformanceTracker, ceiling float64, period time.Duration) *CoolDownManager {
	return &CoolDownManager{registry: registry, perf: perf, ceiling: ceiling, period: period, until: make(map[string]time.Time)}
}

// Check re-evaluates a model key's error rate and disables it if the
// ceiling is breached. A model whose cool-down period has elapsed is
// re-enabled instead, without re-evaluating its error rate on that call.
func (c *CoolDownManager) Check(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if until, cooling := c.until[key]; cooling {
		if now.Before(until) {
			return
		}
		delete(c.until, key)
		c.registry.SetAvailable(key, true)
		return
	}

	if c.perf.ErrorRateExceeds(key, c.ceiling) {
		c.registry.SetAvailable(key, false)
		c.until[key] = now.Add(c.period)
	}
}
