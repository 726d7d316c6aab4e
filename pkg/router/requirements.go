// Package router implements the Model Router: filter, score, and select a
// ModelDescriptor for a request, then execute against a provider adapter
// with ranked fallback (spec.md §4.5). Grounded on tarsy's
// pkg/config/llm.go registry shape and pkg/llm/client.go's
// adapter-dispatch-with-fallback pattern.
package router

import "github.com/corepath/partner/pkg/domain"

// Requirements are the hard filters a candidate model must satisfy before
// it is eligible for scoring.
type Requirements struct {
	NeedsStreaming  bool
	NeedsFunctions  bool
	NeedsVision     bool
	LocalOnly       bool
	InputTokens     int
	OutputTokens    int
	MaxTokens       int
	MaxCost         *float64
	MaxLatencyMS    *float64
	PreferredModel  string // "provider:model", honored only for <= moderate complexity
	Complexity      domain.TaskComplexity
	OptimizationGoal domain.OptimizationGoal
}

// satisfies reports whether a descriptor passes every hard requirement.
func satisfies(d *domain.ModelDescriptor, r Requirements) bool {
	if r.NeedsStreaming && !d.SupportsStreaming {
		return false
	}
	if r.NeedsFunctions && !d.SupportsFunctions {
		return false
	}
	if r.NeedsVision && !d.SupportsVision {
		return false
	}
	if r.LocalOnly && !d.LocalExecution {
		return false
	}
	if r.MaxTokens > 0 && r.InputTokens+r.OutputTokens > r.MaxTokens {
		return false
	}
	if r.MaxTokens > 0 && d.MaxContextTokens < r.InputTokens+r.OutputTokens {
		return false
	}
	if r.MaxCost != nil && d.EstimatedCost(r.InputTokens, r.OutputTokens) > *r.MaxCost {
		return false
	}
	if r.MaxLatencyMS != nil && d.TypicalLatencyMS > *r.MaxLatencyMS {
		return false
	}
	return true
}

func lowModerateOrBelow(c domain.TaskComplexity) bool {
	switch c {
	case domain.ComplexityTrivial, domain.ComplexitySimple, domain.ComplexityModerate:
		return true
	default:
		return false
	}
}
