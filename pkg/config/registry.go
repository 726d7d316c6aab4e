package config

import (
	"fmt"
	"sync"

	"github.com/corepath/partner/pkg/domain"
)

// ModelRegistry stores model descriptors in memory with thread-safe
// read/write access, following tarsy's LLMProviderRegistry
// (pkg/config/llm.go): defensive copies in and out, a single RWMutex.
type ModelRegistry struct {
	mu       sync.RWMutex
	models   map[string]*domain.ModelDescriptor
}

// NewModelRegistry builds a registry from the YAML provider map loaded by
// Load.
func NewModelRegistry(providers map[string]ModelProviderYAML) *ModelRegistry {
	r := &ModelRegistry{models: make(map[string]*domain.ModelDescriptor, len(providers))}
	for key, p := range providers {
		d := &domain.ModelDescriptor{
			Provider:          domain.ModelProvider(p.Provider),
			Model:             p.Model,
			MaxContextTokens:  p.MaxContextTokens,
			SupportsStreaming: p.SupportsStreaming,
			SupportsFunctions: p.SupportsFunctions,
			SupportsVision:    p.SupportsVision,
			QualityReasoning:  p.QualityReasoning,
			QualityBreadth:    p.QualityBreadth,
			QualityCode:       p.QualityCode,
			QualityCreativity: p.QualityCreativity,
			InputCostPer1K:    p.InputCostPer1K,
			OutputCostPer1K:   p.OutputCostPer1K,
			TypicalLatencyMS:  p.TypicalLatencyMS,
			Available:         true,
			RetentionDays:     p.RetentionDays,
			TrainsOnData:      p.TrainsOnData,
			LocalExecution:    p.LocalExecution,
		}
		r.models[key] = d
	}
	return r
}

// Get retrieves a model descriptor by "provider:model" key.
func (r *ModelRegistry) Get(key string) (*domain.ModelDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.models[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelProviderNotFound, key)
	}
	cp := *d
	return &cp, nil
}

// All returns a defensive copy of every registered descriptor.
func (r *ModelRegistry) All() []*domain.ModelDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.ModelDescriptor, 0, len(r.models))
	for _, d := range r.models {
		cp := *d
		out = append(out, &cp)
	}
	return out
}

// SetAvailable updates a descriptor's availability flag (used when the
// Router's backpressure cool-down kicks in).
func (r *ModelRegistry) SetAvailable(key string, available bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.models[key]; ok {
		d.Available = available
	}
}
