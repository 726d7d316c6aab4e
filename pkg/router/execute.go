package router

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Resolver looks up a Provider adapter for a "provider:model" registry key.
type Resolver func(key string) (Provider, bool)

// Execute dispatches to the primary selection and, on failure, walks the
// ranked fallback list from RouterConfig.FallbackOrder until one succeeds
// or all fail. Every attempt, success or failure, updates the
// PerformanceTracker (spec.md §4.5: "every attempt updates ModelPerformance
// via record_performance").
func (rt *Router) Execute(ctx context.Context, resolve Resolver, primary Selection, prompt string, opts CallOptions) (Response, error) {
	keys := make([]string, 0, 1+len(rt.cfg.FallbackOrder))
	if primary.Descriptor != nil {
		keys = append(keys, primary.Descriptor.Key())
	}
	for _, k := range rt.cfg.FallbackOrder {
		if k != "" && (len(keys) == 0 || k != keys[0]) {
			keys = append(keys, k)
		}
	}

	var lastErr error
	for _, key := range keys {
		provider, ok := resolve(key)
		if !ok {
			continue
		}

		start := time.Now()
		text, err := rt.attemptWithRetry(ctx, provider, prompt, opts)
		latency := time.Since(start).Seconds() * 1000

		if err != nil {
			lastErr = err
			rt.perf.RecordFailure(key, latency, err)
			continue
		}

		rt.perf.RecordSuccess(key, latency)
		return Response{Text: text, Model: key, LatencyMS: latency}, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("router: no usable provider among %v", keys)
	}
	return Response{}, fmt.Errorf("router: execution failed across all candidates: %w", lastErr)
}

// attemptWithRetry retries a single provider call through transient
// failures before the Router gives up on it and moves to the next
// fallback key.
func (rt *Router) attemptWithRetry(ctx context.Context, p Provider, prompt string, opts CallOptions) (string, error) {
	var out string
	op := func() error {
		text, err := p.Generate(ctx, prompt, opts)
		if err != nil {
			return err
		}
		out = text
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2)
	err := backoff.Retry(op, backoff.WithContext(bo, ctx))
	return out, err
}
