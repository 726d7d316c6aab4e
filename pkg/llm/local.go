package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/corepath/partner/pkg/router"
)

// LocalProvider is the well-known, always-present in-process backend the
// Router falls back to when no remote candidate survives filtering
// (spec.md §4.1 "fall back to a well-known always present local
// backend"). It performs no network I/O and never fails IsAvailable,
// matching the registry key "local:default" the rest of the codebase
// assumes is always resolvable.
type LocalProvider struct{}

// Generate produces a deterministic, templated response derived from the
// prompt. A production deployment would swap this for an embedded model
// runtime; this core only needs a backend that is always present and
// never depends on external transports.
func (LocalProvider) Generate(ctx context.Context, prompt string, opts router.CallOptions) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", fmt.Errorf("llm: local provider received an empty prompt")
	}
	return fmt.Sprintf("[local] acknowledged: %s", trimmed), nil
}

// GenerateStream emits the full response as a single chunk; the local
// backend has no token-by-token streaming of its own to expose.
func (p LocalProvider) GenerateStream(ctx context.Context, prompt string, opts router.CallOptions, onChunk func(string)) error {
	text, err := p.Generate(ctx, prompt, opts)
	if err != nil {
		return err
	}
	onChunk(text)
	return nil
}

// IsAvailable is always true: the local backend has no external
// dependency that could be down.
func (LocalProvider) IsAvailable(ctx context.Context) bool { return true }
