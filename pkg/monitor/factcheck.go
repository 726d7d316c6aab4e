package monitor

import (
	"time"

	"github.com/corepath/partner/pkg/domain"
)

// FactChecker is one step of the fact-check cascade (spec.md §4.6: "(i)
// structured fact-check API if keyed, (ii) encyclopedia lookup, (iii)
// heuristic"). Ok is false when this checker could not reach a verdict and
// the cascade should fall through to the next one.
type FactChecker interface {
	Check(claim string) (status domain.FactCheckStatus, confidence float64, source string, ok bool)
}

// runFactCheckCascade tries each configured FactChecker in order and
// records the first verdict reached, auto-resolving verified claims when
// AutoResolveVerified is set.
func (e *EDM) runFactCheckCascade(debt domain.EpistemicDebt) (domain.EpistemicDebt, error) {
	for _, checker := range e.checkers {
		status, confidence, source, ok := checker.Check(debt.ClaimText)
		if !ok {
			continue
		}
		debt.FactCheckStatus = status
		debt.Confidence = confidence
		debt.EvidenceSource = source

		if e.cfg.AutoResolveVerified && status == domain.FactCheckVerified {
			debt.Resolved = true
			debt.ResolutionMethod = "auto_verified"
			now := time.Now()
			debt.ResolvedAt = now
		}
		break
	}

	e.mu.Lock()
	e.debts[debt.ID] = &debt
	err := e.store.WriteRecord(debt.ID, &debt)
	e.mu.Unlock()
	return debt, err
}

// HTTPFactChecker queries a structured fact-check API (e.g. Google Fact
// Check Tools). Keyed means an API key is configured; Check is a no-op
// (ok=false) when unkeyed, so the cascade falls through to the next step.
type HTTPFactChecker struct {
	APIKey string
	Query  func(apiKey, claim string) (status domain.FactCheckStatus, confidence float64, source string, ok bool)
}

func (c HTTPFactChecker) Check(claim string) (domain.FactCheckStatus, float64, string, bool) {
	if c.APIKey == "" || c.Query == nil {
		return domain.FactCheckPending, 0, "", false
	}
	return c.Query(c.APIKey, claim)
}

// EncyclopediaFactChecker looks a claim up against a reference lookup
// function (e.g. a Wikipedia/Wikidata summary search).
type EncyclopediaFactChecker struct {
	Lookup func(claim string) (summary string, found bool)
}

func (c EncyclopediaFactChecker) Check(claim string) (domain.FactCheckStatus, float64, string, bool) {
	if c.Lookup == nil {
		return domain.FactCheckPending, 0, "", false
	}
	summary, found := c.Lookup(claim)
	if !found {
		return domain.FactCheckUnverifiable, 0.3, "encyclopedia", true
	}
	return domain.FactCheckVerified, 0.6, "encyclopedia:" + summary, true
}

// HeuristicFactChecker is the always-available last resort: it never
// fails the cascade (ok is always true), returning "unverifiable" with low
// confidence when it cannot say more.
type HeuristicFactChecker struct{}

func (HeuristicFactChecker) Check(claim string) (domain.FactCheckStatus, float64, string, bool) {
	if len(claim) == 0 {
		return domain.FactCheckUnverifiable, 0.1, "heuristic", true
	}
	return domain.FactCheckUnverifiable, 0.2, "heuristic", true
}
