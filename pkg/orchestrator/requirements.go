// Package orchestrator implements the Request Orchestrator: the stage
// machine that sequences Privacy, Context, Gates, Router, Monitor, and
// Feedback into one strictly-ordered pipeline per request (spec.md §4.1).
// Grounded on tarsy's pkg/queue worker-pool/session-executor pattern for
// the concurrency layer around Process.
package orchestrator

import (
	"github.com/corepath/partner/pkg/domain"
	"github.com/corepath/partner/pkg/gates"
	"github.com/corepath/partner/pkg/router"
)

// Requirements bundles every per-request input the pipeline's stages need
// beyond the bare (user, query, session, task category) tuple.
type Requirements struct {
	// Privacy stage
	PrivacyAction domain.PrivacyAction
	EpsilonCost   float64

	// Gate stage
	Action gates.Action

	// Router stage
	Router router.Requirements

	// Context stage
	WindowTokenCap int
	QueryVector    []float32

	// Monitor stage inputs, supplied by the caller since the orchestrator
	// has no independent way to measure them.
	Agency domain.AgencySnapshot
}
