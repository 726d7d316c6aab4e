// Package gates implements the Four Gates compliance checks and the
// Tribunal that adjudicates a failed gate set into an allow/deny verdict
// (spec.md §4.4). Grounded on original_source/src/ai_pal/gates/gate_system.py.
package gates

// Action describes the AI action under evaluation. Every field is optional;
// a zero value is the conservative "no evidence of compliance" case, which
// is how the original Python implementation treats missing dict keys.
type Action struct {
	// Autonomy gate
	UserAgencyBefore     float64
	UserAgencyAfter      float64
	UserApprovalRequired bool
	Reversible           bool

	// Humanity gate
	AddictiveFeatures     []string
	DarkPatterns          []string
	EmotionalManipulation bool
	CreatesTimePressure   bool

	// Oversight gate
	AppealAvailable     bool
	HumanReviewPossible bool
	ExplanationProvided bool
	AuditTrailEnabled   bool

	// Alignment gate. These default to true when left nil, mirroring the
	// original implementation's optimistic dict.get(key, True) defaults:
	// an action is presumed aligned until evidence says otherwise.
	MatchesUserValues     *bool
	MatchesSystemValues   *bool
	ConsistentWithHistory *bool
	TransparentGoals      *bool

	// TargetFile is set when the action is a patch/file-modification
	// request; ProtectedPaths enforcement runs against it.
	TargetFile string
}
