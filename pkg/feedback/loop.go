// Package feedback implements the self-improvement loop: it indexes
// incoming Feedback Events by component and kind, and emits Improvement
// Suggestions once a component crosses its negative-feedback threshold
// (spec.md §4.7). Grounded on
// original_source/src/ai_pal/improvement/self_improvement.py for the
// threshold/confidence formulas, and on tarsy's pkg/models append-only
// event pattern for storage.
package feedback

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corepath/partner/pkg/config"
	"github.com/corepath/partner/pkg/domain"
	"github.com/corepath/partner/pkg/storage"
)

// EventPublisher is the subset of events.Manager the loop needs to
// broadcast feedback events over the external collaborator API's
// subscription stream (spec.md §6). Defined locally, mirroring
// gates.Tribunal's EventPublisher, so feedback doesn't gain a dependency
// edge on the events package.
type EventPublisher interface {
	Publish(channel string, v any)
}

// ChannelFeedback mirrors events.ChannelFeedback without importing the
// events package.
const ChannelFeedback = "feedback"

// Loop consumes Feedback Events and proposes remediation when warranted.
type Loop struct {
	cfg config.FeedbackConfig

	events      *storage.Store
	suggestions *storage.Store

	mu          sync.Mutex
	byComponent map[string][]domain.FeedbackEvent
	// suggestionIDs holds the one open suggestion id per target component,
	// so replaying the same feedback events onto Evaluate is idempotent on
	// suggestion ids (spec.md §8) instead of minting a new one each call.
	suggestionIDs map[string]string

	publisher EventPublisher
}

// SetPublisher wires an event bus into the loop so every recorded feedback
// event reaches SPEC_FULL.md §4.10's subscription stream. Optional: a nil
// publisher leaves Record's existing behavior, which the other tests in
// this package rely on, intact.
func (l *Loop) SetPublisher(p EventPublisher) {
	l.publisher = p
}

// NewLoop builds a Loop rooted at dataDir/feedback, replaying any
// previously persisted events into the in-memory index.
func NewLoop(cfg config.FeedbackConfig, dataDir string) (*Loop, error) {
	root, err := storage.New(dataDir)
	if err != nil {
		return nil, err
	}
	eventStore, err := root.Sub("feedback/events")
	if err != nil {
		return nil, err
	}
	suggestionStore, err := root.Sub("feedback/suggestions")
	if err != nil {
		return nil, err
	}
	l := &Loop{
		cfg: cfg, events: eventStore, suggestions: suggestionStore,
		byComponent:   make(map[string][]domain.FeedbackEvent),
		suggestionIDs: make(map[string]string),
	}

	ids, err := eventStore.ListIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		var e domain.FeedbackEvent
		if err := eventStore.ReadRecord(id, &e); err == nil {
			l.byComponent[e.Component] = append(l.byComponent[e.Component], e)
		}
	}

	suggestionIDs, err := suggestionStore.ListIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range suggestionIDs {
		var s domain.ImprovementSuggestion
		if err := suggestionStore.ReadRecord(id, &s); err == nil {
			l.suggestionIDs[s.TargetComponent] = s.ID
		}
	}
	return l, nil
}

// suggestionIDFor returns the existing open suggestion id for a component,
// or deterministically derives and registers a new one. Deriving from the
// component name (rather than minting a fresh uuid) keeps repeated
// Evaluate calls for the same component idempotent on suggestion id.
func (l *Loop) suggestionIDFor(component string) string {
	if id, ok := l.suggestionIDs[component]; ok {
		return id
	}
	sum := sha256.Sum256([]byte("suggestion:" + component))
	id := hex.EncodeToString(sum[:])[:24]
	l.suggestionIDs[component] = id
	return id
}

// Record persists a Feedback Event is both a storage.Store write for the
// event itself (satisfying the FeedbackSink contract gates.Tribunal and
// other components expect) and an append to the in-memory, per-component
// index the threshold check reads from.
func (l *Loop) Record(e domain.FeedbackEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.events.WriteRecord(e.ID, e); err != nil {
		return err
	}
	l.byComponent[e.Component] = append(l.byComponent[e.Component], e)
	if l.publisher != nil {
		l.publisher.Publish(ChannelFeedback, e)
	}
	return nil
}

// Suggestions returns every Improvement Suggestion produced so far, for
// the read-only collaborator API (spec.md §6).
func (l *Loop) Suggestions() ([]domain.ImprovementSuggestion, error) {
	ids, err := l.suggestions.ListIDs()
	if err != nil {
		return nil, err
	}
	out := make([]domain.ImprovementSuggestion, 0, len(ids))
	for _, id := range ids {
		var s domain.ImprovementSuggestion
		if err := l.suggestions.ReadRecord(id, &s); err == nil {
			out = append(out, s)
		}
	}
	return out, nil
}

// windowEvents returns a component's events that fall within the rolling
// window ending now.
func (l *Loop) windowEvents(component string, now time.Time) []domain.FeedbackEvent {
	window := l.cfg.Window
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	cutoff := now.Add(-window)

	var out []domain.FeedbackEvent
	for _, e := range l.byComponent[component] {
		if !e.Timestamp.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// Evaluate checks a component's rolling-window feedback against the
// min_feedback/negative_ratio thresholds and, if crossed, produces (and
// persists) an Improvement Suggestion. Returns nil, nil when the
// threshold was not crossed.
func (l *Loop) Evaluate(component string) (*domain.ImprovementSuggestion, error) {
	l.mu.Lock()
	events := l.windowEvents(component, time.Now())
	l.mu.Unlock()

	total := len(events)
	if total < l.cfg.MinFeedback {
		return nil, nil
	}

	var negative int
	negativeByKind := make(map[domain.FeedbackKind]int)
	var ids []string
	for _, e := range events {
		ids = append(ids, e.ID)
		if e.Kind.IsNegative() {
			negative++
			negativeByKind[e.Kind]++
		}
	}

	ratio := float64(negative) / float64(total)
	if ratio <= l.cfg.NegativeRatioThreshold {
		return nil, nil
	}

	confidence := 0.7*ratio + 0.3*min(1, float64(negative)/20.0)
	action := actionFor(negativeByKind)

	l.mu.Lock()
	suggestionID := l.suggestionIDFor(component)
	l.mu.Unlock()

	suggestion := &domain.ImprovementSuggestion{
		ID:               suggestionID,
		Action:           action,
		TargetComponent:  component,
		Description:      "negative feedback ratio exceeded threshold for " + component,
		Rationale:        reasonFor(negativeByKind, negative, total),
		Confidence:       confidence,
		SupportingEvents: ids,
		CreatedAt:        time.Now(),
	}
	if confidence >= l.cfg.AutoImplementThreshold {
		suggestion.Approved = true
		suggestion.Implemented = true
	}

	if err := l.suggestions.WriteRecord(suggestion.ID, suggestion); err != nil {
		return nil, err
	}
	return suggestion, nil
}

// actionFor picks the suggestion's action kind by majority evidence among
// the negative events, per spec.md §4.7: gate-violations -> behavior
// change; ARI alerts -> parameter adjustment; EDM alerts -> prompt
// refinement; else parameter adjustment.
func actionFor(byKind map[domain.FeedbackKind]int) domain.SuggestionAction {
	majority := domain.FeedbackKind("")
	best := -1
	for k, n := range byKind {
		if n > best {
			best = n
			majority = k
		}
	}
	switch majority {
	case domain.FeedbackGateViolation:
		return domain.ActionBehaviorChange
	case domain.FeedbackARIAlert:
		return domain.ActionParameterAdjustment
	case domain.FeedbackEDMAlert:
		return domain.ActionPromptRefinement
	default:
		return domain.ActionParameterAdjustment
	}
}

func reasonFor(byKind map[domain.FeedbackKind]int, negative, total int) string {
	majority := domain.FeedbackKind("")
	best := -1
	for k, n := range byKind {
		if n > best {
			best = n
			majority = k
		}
	}
	return string(majority) + " accounts for the largest share of " + strconv.Itoa(negative) + "/" + strconv.Itoa(total) + " negative events"
}
