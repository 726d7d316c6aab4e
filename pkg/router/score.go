package router

import "github.com/corepath/partner/pkg/domain"

// qualityBlend implements the complexity->quality table in spec.md §4.5.
func qualityBlend(d *domain.ModelDescriptor, complexity domain.TaskComplexity) float64 {
	switch complexity {
	case domain.ComplexityTrivial:
		return 1.0
	case domain.ComplexitySimple:
		return max64(d.QualityReasoning, d.QualityBreadth)
	case domain.ComplexityModerate:
		return 0.6*d.QualityReasoning + 0.4*d.QualityBreadth
	case domain.ComplexityComplex:
		return 0.8*d.QualityReasoning + 0.2*d.QualityBreadth
	case domain.ComplexityExpert:
		return min64(d.QualityReasoning, d.QualityBreadth)
	default:
		return 0.6*d.QualityReasoning + 0.4*d.QualityBreadth
	}
}

// privacyScore: 1 local, 0.8 no external retention, 0.6 doesn't train on
// data, 0.3 otherwise.
func privacyScore(d *domain.ModelDescriptor) float64 {
	switch {
	case d.LocalExecution:
		return 1.0
	case d.RetentionDays == 0:
		return 0.8
	case !d.TrainsOnData:
		return 0.6
	default:
		return 0.3
	}
}

func costScore(d *domain.ModelDescriptor, inputTokens, outputTokens int, reference float64) float64 {
	if d.IsFree() {
		return 1.0
	}
	if reference <= 0 {
		return 0
	}
	v := 1 - d.EstimatedCost(inputTokens, outputTokens)/reference
	if v < 0 {
		return 0
	}
	return v
}

func latencyScore(d *domain.ModelDescriptor, referenceMS float64) float64 {
	if referenceMS <= 0 {
		referenceMS = 5000
	}
	v := 1 - d.TypicalLatencyMS/referenceMS
	if v < 0 {
		return 0
	}
	return v
}

// score evaluates one descriptor against the requested optimization goal.
func score(d *domain.ModelDescriptor, r Requirements, costReference, latencyReferenceMS float64) float64 {
	cost := costScore(d, r.InputTokens, r.OutputTokens, costReference)
	latency := latencyScore(d, latencyReferenceMS)
	quality := qualityBlend(d, r.Complexity)
	privacy := privacyScore(d)

	switch r.OptimizationGoal {
	case domain.OptimizeCost:
		return cost
	case domain.OptimizeLatency:
		return latency
	case domain.OptimizeQuality:
		return quality
	case domain.OptimizePrivacy:
		return privacy
	case domain.OptimizeBalanced:
		fallthrough
	default:
		return 0.3*cost + 0.2*latency + 0.4*quality + 0.1*privacy
	}
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
