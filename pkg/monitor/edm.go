package monitor

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corepath/partner/pkg/config"
	"github.com/corepath/partner/pkg/domain"
	"github.com/corepath/partner/pkg/storage"
)

// ChannelEDMDetection mirrors events.ChannelEDMDetection without importing
// the events package (see monitor.EventPublisher in ari.go).
const ChannelEDMDetection = "edm-detection"

// EDM scans model output for epistemic debt and runs the fact-check
// cascade on high-severity claims (spec.md §4.6).
type EDM struct {
	cfg       config.MonitorConfig
	store     *storage.Store
	checkers  []FactChecker

	mu    sync.Mutex
	debts map[string]*domain.EpistemicDebt

	publisher EventPublisher
}

// SetPublisher wires an event bus into EDM so newly detected debts reach
// SPEC_FULL.md §4.10's subscription stream. Optional, mirroring ARI's
// SetPublisher: a nil publisher leaves existing test behavior unchanged.
func (e *EDM) SetPublisher(p EventPublisher) {
	e.publisher = p
}

// NewEDM builds an EDM monitor rooted at dataDir/monitor/edm whose
// fact-check cascade tries checkers in the order they are passed; no
// checker is added or reordered here.
func NewEDM(cfg config.MonitorConfig, dataDir string, checkers ...FactChecker) (*EDM, error) {
	root, err := storage.New(dataDir)
	if err != nil {
		return nil, err
	}
	sub, err := root.Sub("monitor/edm")
	if err != nil {
		return nil, err
	}
	e := &EDM{cfg: cfg, store: sub, checkers: checkers, debts: make(map[string]*domain.EpistemicDebt)}

	ids, err := sub.ListIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		var d domain.EpistemicDebt
		if err := sub.ReadRecord(id, &d); err == nil {
			e.debts[d.ID] = &d
		}
	}
	return e, nil
}

// AnalyzeText scans text for the three lexical debt families and records
// one EpistemicDebt per hit. Claims of severity >= high are handed to the
// fact-check cascade.
func (e *EDM) AnalyzeText(requestID, text string) ([]domain.EpistemicDebt, error) {
	var found []domain.EpistemicDebt

	for _, loc := range unfalsifiableFamily.patterns {
		for _, m := range loc.FindAllStringIndex(text, -1) {
			found = append(found, e.newDebt(requestID, text, m[0], m[1], unfalsifiableFamily.kind, unfalsifiableFamily.severity))
		}
	}
	for _, loc := range unverifiedFamily.patterns {
		for _, m := range loc.FindAllStringIndex(text, -1) {
			if hasCitationNearby(text, m[1], e.citationWindow()) {
				continue
			}
			found = append(found, e.newDebt(requestID, text, m[0], m[1], unverifiedFamily.kind, unverifiedFamily.severity))
		}
	}
	for _, loc := range vagueFamily.patterns {
		for _, m := range loc.FindAllStringIndex(text, -1) {
			found = append(found, e.newDebt(requestID, text, m[0], m[1], vagueFamily.kind, vagueFamily.severity))
		}
	}

	e.mu.Lock()
	for i := range found {
		cp := found[i]
		e.debts[cp.ID] = &cp
		if err := e.store.WriteRecord(cp.ID, &cp); err != nil {
			e.mu.Unlock()
			return nil, err
		}
	}
	e.mu.Unlock()

	for i := range found {
		if isHighSeverityOrAbove(found[i].Severity) {
			resolved, err := e.runFactCheckCascade(found[i])
			if err == nil {
				found[i] = resolved
			}
		}
	}

	if e.publisher != nil {
		for i := range found {
			e.publisher.Publish(ChannelEDMDetection, found[i])
		}
	}
	return found, nil
}

func (e *EDM) citationWindow() int {
	if e.cfg.CitationWindowChars > 0 {
		return e.cfg.CitationWindowChars
	}
	return 100
}

func isHighSeverityOrAbove(s domain.DebtSeverity) bool {
	return s == domain.DebtHigh || s == domain.DebtCritical
}

func (e *EDM) newDebt(requestID, text string, start, end int, kind domain.DebtKind, sev domain.DebtSeverity) domain.EpistemicDebt {
	claim := extractClaim(text, start, end)
	return domain.EpistemicDebt{
		ID:              uuid.NewString(),
		RequestID:       requestID,
		ClaimText:       claim,
		Context:         text,
		Severity:        sev,
		Kind:            kind,
		FactCheckStatus: domain.FactCheckPending,
		DetectedAt:      time.Now(),
	}
}

// extractClaim widens a raw match span to the enclosing sentence-ish
// boundary, matching edm_monitor.py's _extract_claim behavior of
// returning a readable snippet rather than the bare matched tokens.
func extractClaim(text string, start, end int) string {
	lo := start
	for lo > 0 && text[lo-1] != '.' && text[lo-1] != '\n' {
		lo--
	}
	hi := end
	for hi < len(text) && text[hi] != '.' && text[hi] != '\n' {
		hi++
	}
	if hi < len(text) {
		hi++
	}
	return trimSpace(text[lo:hi])
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }

// Debts returns a user-scoped, unresolved-first view is left to callers;
// this returns every debt known to the monitor.
func (e *EDM) Debts() []domain.EpistemicDebt {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.EpistemicDebt, 0, len(e.debts))
	for _, d := range e.debts {
		out = append(out, *d)
	}
	return out
}

// UnresolvedCount reports how many debts are still unresolved. No alert
// is raised from this count.
func (e *EDM) UnresolvedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, d := range e.debts {
		if !d.Resolved {
			n++
		}
	}
	return n
}
