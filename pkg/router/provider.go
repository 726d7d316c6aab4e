package router

import "context"

// Provider is the thin interface every LLM backend adapter implements.
// Concrete transports (HTTP calls to a given API) are external
// collaborators; this package only defines the contract and the
// fallback/dispatch logic around it (spec.md §9 and SPEC_FULL.md §4.5).
type Provider interface {
	Generate(ctx context.Context, prompt string, opts CallOptions) (string, error)
	GenerateStream(ctx context.Context, prompt string, opts CallOptions, onChunk func(string)) error
	IsAvailable(ctx context.Context) bool
}

// CallOptions carries the per-call generation parameters.
type CallOptions struct {
	MaxOutputTokens int
	Temperature     float64
	Stop            []string
}

// Response is the result of a successful Execute call.
type Response struct {
	Text       string
	Model      string
	Provider   string
	LatencyMS  float64
	InputTokens  int
	OutputTokens int
}
