package gates

import (
	"path"
	"strings"
	"time"

	"github.com/corepath/partner/pkg/config"
	"github.com/corepath/partner/pkg/domain"
)

// Result is the outcome of evaluating one gate against an Action.
type Result struct {
	Gate      domain.GateKind
	Passed    bool
	Score     float64
	Reason    string
	Threshold float64
	Timestamp time.Time
}

// System evaluates the Four Gates against an Action using the thresholds
// from config.GateConfig. It holds no mutable state and is safe for
// concurrent use by multiple orchestrator workers.
type System struct {
	cfg config.GateConfig
}

// NewSystem builds a gate System from the loaded configuration.
func NewSystem(cfg config.GateConfig) *System {
	return &System{cfg: cfg}
}

// EvaluateAll runs every gate and returns one Result per domain.GateKind.
func (s *System) EvaluateAll(a Action) map[domain.GateKind]Result {
	return map[domain.GateKind]Result{
		domain.GateAutonomy:  s.checkAutonomy(a),
		domain.GateHumanity:  s.checkHumanity(a),
		domain.GateOversight: s.checkOversight(a),
		domain.GateAlignment: s.checkAlignment(a),
	}
}

// AllPassed reports whether every gate in results passed.
func AllPassed(results map[domain.GateKind]Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// Failed returns the gates that did not pass, in a stable GateKind order.
func Failed(results map[domain.GateKind]Result) []Result {
	var out []Result
	for _, k := range []domain.GateKind{domain.GateAutonomy, domain.GateHumanity, domain.GateOversight, domain.GateAlignment} {
		if r, ok := results[k]; ok && !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// checkAutonomy: net positive agency, spec.md §4.4 Gate 1.
func (s *System) checkAutonomy(a Action) Result {
	delta := a.UserAgencyAfter - a.UserAgencyBefore

	score := 0.5 + delta*0.3
	if a.UserApprovalRequired {
		score += 0.2
	}
	if a.Reversible {
		score += 0.1
	}
	score = clamp(score)

	threshold := s.cfg.AutonomyThreshold
	reason := "agency delta below threshold"
	passed := delta >= threshold
	if passed {
		reason = "net positive agency"
		if a.UserApprovalRequired {
			reason += " (user retained control)"
		}
	}

	return Result{Gate: domain.GateAutonomy, Passed: passed, Score: score, Reason: reason, Threshold: threshold, Timestamp: time.Now()}
}

// checkHumanity: non-extractive patterns, spec.md §4.4 Gate 2.
func (s *System) checkHumanity(a Action) Result {
	score := 1.0
	score -= float64(len(a.AddictiveFeatures)) * 0.15
	score -= float64(len(a.DarkPatterns)) * 0.2
	if a.EmotionalManipulation {
		score -= 0.25
	}
	if a.CreatesTimePressure {
		score -= 0.15
	}
	score = clamp(score)

	threshold := s.cfg.HumanityThreshold
	passed := score >= threshold

	var issues []string
	if len(a.AddictiveFeatures) > 0 {
		issues = append(issues, "addictive features")
	}
	if len(a.DarkPatterns) > 0 {
		issues = append(issues, "dark patterns")
	}
	if a.EmotionalManipulation {
		issues = append(issues, "emotional manipulation")
	}
	if a.CreatesTimePressure {
		issues = append(issues, "time pressure")
	}
	reason := "non-extractive"
	if len(issues) > 0 {
		reason = "issues: " + strings.Join(issues, ", ")
	}

	return Result{Gate: domain.GateHumanity, Passed: passed, Score: score, Reason: reason, Threshold: threshold, Timestamp: time.Now()}
}

// checkOversight: human override availability, spec.md §4.4 Gate 3.
func (s *System) checkOversight(a Action) Result {
	score := 0.0
	var caps []string
	if a.AppealAvailable {
		score += 0.3
		caps = append(caps, "appeal")
	}
	if a.HumanReviewPossible {
		score += 0.3
		caps = append(caps, "human review")
	}
	if a.ExplanationProvided {
		score += 0.2
		caps = append(caps, "explanation")
	}
	if a.AuditTrailEnabled {
		score += 0.2
		caps = append(caps, "audit trail")
	}

	threshold := s.cfg.OversightThreshold
	passed := score >= threshold
	reason := "no oversight"
	if len(caps) > 0 {
		reason = "oversight: " + strings.Join(caps, ", ")
	}

	return Result{Gate: domain.GateOversight, Passed: passed, Score: score, Reason: reason, Threshold: threshold, Timestamp: time.Now()}
}

// checkAlignment: value alignment, spec.md §4.4 Gate 4.
func (s *System) checkAlignment(a Action) Result {
	score := 0.0
	var matches []string
	if boolOrTrue(a.MatchesUserValues) {
		score += 0.3
		matches = append(matches, "user values")
	}
	if boolOrTrue(a.MatchesSystemValues) {
		score += 0.3
		matches = append(matches, "system values")
	}
	if boolOrTrue(a.ConsistentWithHistory) {
		score += 0.2
		matches = append(matches, "historical behavior")
	}
	if boolOrTrue(a.TransparentGoals) {
		score += 0.2
		matches = append(matches, "transparent goals")
	}

	threshold := s.cfg.AlignmentThreshold
	passed := score >= threshold
	reason := "misaligned"
	if len(matches) > 0 {
		reason = "aligned with: " + strings.Join(matches, ", ")
	}

	return Result{Gate: domain.GateAlignment, Passed: passed, Score: score, Reason: reason, Threshold: threshold, Timestamp: time.Now()}
}

func boolOrTrue(b *bool) bool {
	return b == nil || *b
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ValidatePatch denies any request targeting a protected path, either an
// exact match or a descendant of one. This gate cannot be overridden by
// the Tribunal (spec.md §4.4): protected-file violations are absolute.
func (s *System) ValidatePatch(targetFile string) bool {
	target := path.Clean(targetFile)
	for _, protected := range s.cfg.ProtectedPaths {
		p := path.Clean(protected)
		if target == p || strings.HasPrefix(target, p+"/") {
			return false
		}
	}
	return true
}
