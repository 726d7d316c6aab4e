package router

import (
	"fmt"
	"sort"

	"github.com/corepath/partner/pkg/config"
	"github.com/corepath/partner/pkg/domain"
)

// wellKnownLocalKey is the guaranteed-present fallback descriptor selected
// when no candidate survives filtering (spec.md §4.5 step 4).
const wellKnownLocalKey = "local:default"

// Selection is the Router's chosen descriptor plus the reasoning behind it.
type Selection struct {
	Descriptor *domain.ModelDescriptor
	Reason     string
	Confidence float64
	Score      float64
}

// Registry is the read interface select needs from config.ModelRegistry,
// narrowed so router tests can substitute a fake without pulling in config.
type Registry interface {
	Get(key string) (*domain.ModelDescriptor, error)
	All() []*domain.ModelDescriptor
}

// Router selects and executes against ModelDescriptors.
type Router struct {
	registry Registry
	cfg      config.RouterConfig
	perf     *PerformanceTracker
}

// New builds a Router over a registry and configuration with an
// in-memory-only performance tracker.
func New(registry Registry, cfg config.RouterConfig) *Router {
	return &Router{registry: registry, cfg: cfg, perf: NewPerformanceTracker()}
}

// NewWithTracker builds a Router that records performance through an
// externally-owned tracker, e.g. a PersistentTracker so every update is
// also written to disk.
func NewWithTracker(registry Registry, cfg config.RouterConfig, perf *PerformanceTracker) *Router {
	return &Router{registry: registry, cfg: cfg, perf: perf}
}

// Performance exposes the Router's tracker for callers that need direct
// snapshot access (e.g. the feedback loop's performance-metric ingestion).
func (rt *Router) Performance() *PerformanceTracker {
	return rt.perf
}

// Select runs the filter -> preferred-model shortcut -> score pipeline and
// returns the winning candidate.
func (rt *Router) Select(req Requirements) Selection {
	if req.PreferredModel != "" && lowModerateOrBelow(req.Complexity) {
		if d, err := rt.registry.Get(req.PreferredModel); err == nil && d.Available && satisfies(d, req) {
			return Selection{Descriptor: d, Reason: "preferred model honored", Confidence: 1.0}
		}
	}

	var candidates []*domain.ModelDescriptor
	for _, d := range rt.registry.All() {
		if d.Available && satisfies(d, req) {
			candidates = append(candidates, d)
		}
	}

	if len(candidates) == 0 {
		if local, err := rt.registry.Get(wellKnownLocalKey); err == nil {
			return Selection{Descriptor: local, Reason: "no candidate passed filtering, fell back to local backend", Confidence: 0.5}
		}
		return Selection{Reason: "no candidate passed filtering and local fallback is unavailable", Confidence: 0}
	}

	type scoredCandidate struct {
		d *domain.ModelDescriptor
		s float64
	}
	scored := make([]scoredCandidate, 0, len(candidates))
	for _, d := range candidates {
		scored = append(scored, scoredCandidate{d: d, s: score(d, req, rt.cfg.CostReference, rt.cfg.LatencyReferenceMS)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].s > scored[j].s })

	top := scored[0]
	return Selection{
		Descriptor: top.d,
		Reason:     fmt.Sprintf("top-scored candidate for %s optimization", req.OptimizationGoal),
		Confidence: 1.0,
		Score:      top.s,
	}
}
