package contextstore

import (
	"sort"
	"time"

	"github.com/corepath/partner/pkg/domain"
)

// Window is a token-bounded slice of a user's memory assembled for a
// single request, ranked by composite relevance (spec.md §4.3).
type Window struct {
	UserID    string
	SessionID string
	Entries   []Memory
	TotalTokens int
	PrunedIDs []string
}

// approxTokens estimates token count the way the rest of the stack does:
// four characters per token, rounded up, minimum one.
func approxTokens(s string) int {
	n := (len(s) + 3) / 4
	if n < 1 {
		n = 1
	}
	return n
}

// weighted scores a candidate entry by the composite relevance formula:
// 0.4*priority + 0.3*recency + 0.2*access + 0.1*last-access-decay.
func weighted(m Memory, now time.Time, horizon time.Duration) float64 {
	priority := m.Priority.Weight()

	age := now.Sub(m.CreatedAt)
	recency := 1.0 - clamp01(age.Seconds()/horizon.Seconds())

	access := clamp01(float64(m.AccessCount) / 20.0)

	sinceAccess := now.Sub(m.LastAccessed)
	lastAccessDecay := 1.0 - clamp01(sinceAccess.Seconds()/horizon.Seconds())

	return 0.4*priority + 0.3*recency + 0.2*access + 0.1*lastAccessDecay
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// BuildWindow assembles a token-capped context window for a user/session.
//
// If ids is non-empty, those entries are included in caller-supplied order
// (spec.md §4.3: "if explicit ids supplied, include in order"). When a
// later id would overflow maxTokens, already-admitted non-critical entries
// are evicted lowest-composite-relevance-first until enough tokens are
// freed ("attempt pruning: drop the lowest-composite-relevance non-critical
// entry until enough tokens freed"); if eviction still can't make room, the
// id itself is recorded as pruned instead.
//
// If ids is empty, every live entry for the user is a candidate, ranked by
// weighted composite relevance highest-first, and added until the next
// entry would exceed maxTokens (lower-ranked entries are simply skipped,
// never need eviction, since candidates are visited best-first).
//
// In both modes, critical-priority entries are never pruned or evicted for
// space: they are always included, even if that means exceeding maxTokens
// when critical entries alone overflow it.
func (s *Store) BuildWindow(userID, sessionID string, ids []string, maxTokens int) Window {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	if len(ids) > 0 {
		return s.buildWindowExplicit(userID, sessionID, ids, maxTokens, now)
	}
	return s.buildWindowRanked(userID, sessionID, maxTokens, now)
}

// buildWindowExplicit preserves caller order and evicts already-admitted
// lower-relevance entries to make room for later ids, per spec.md §4.3.
func (s *Store) buildWindowExplicit(userID, sessionID string, ids []string, maxTokens int, now time.Time) Window {
	win := Window{UserID: userID, SessionID: sessionID}

	for _, id := range ids {
		m, ok := s.entries[id]
		if !ok || m.UserID != userID || m.Expired(now) {
			continue
		}
		cost := approxTokens(m.Content)

		if m.Priority == domain.PriorityCritical {
			win.Entries = append(win.Entries, *m)
			win.TotalTokens += cost
			continue
		}

		for win.TotalTokens+cost > maxTokens {
			idx, found := lowestRelevanceNonCritical(win.Entries, now, s.relevanceHorizon)
			if !found {
				break
			}
			evicted := win.Entries[idx]
			win.TotalTokens -= approxTokens(evicted.Content)
			win.PrunedIDs = append(win.PrunedIDs, evicted.ID)
			win.Entries = append(win.Entries[:idx], win.Entries[idx+1:]...)
		}

		if win.TotalTokens+cost <= maxTokens {
			win.Entries = append(win.Entries, *m)
			win.TotalTokens += cost
		} else {
			win.PrunedIDs = append(win.PrunedIDs, m.ID)
		}
	}
	return win
}

// lowestRelevanceNonCritical finds the index of the admitted non-critical
// entry with the smallest composite relevance score, for eviction.
func lowestRelevanceNonCritical(entries []Memory, now time.Time, horizon time.Duration) (int, bool) {
	best := -1
	var bestScore float64
	for i, e := range entries {
		if e.Priority == domain.PriorityCritical {
			continue
		}
		score := weighted(e, now, horizon)
		if best == -1 || score < bestScore {
			best, bestScore = i, score
		}
	}
	return best, best != -1
}

// buildWindowRanked ranks every live entry for the user by composite
// relevance and admits highest-first until the next entry would overflow.
func (s *Store) buildWindowRanked(userID, sessionID string, maxTokens int, now time.Time) Window {
	var candidates []*Memory
	for _, m := range s.entries {
		if m.UserID == userID && !m.Expired(now) {
			candidates = append(candidates, m)
		}
	}

	var critical, rest []*Memory
	for _, m := range candidates {
		if m.Priority == domain.PriorityCritical {
			critical = append(critical, m)
		} else {
			rest = append(rest, m)
		}
	}

	sort.SliceStable(rest, func(i, j int) bool {
		wi := weighted(*rest[i], now, s.relevanceHorizon)
		wj := weighted(*rest[j], now, s.relevanceHorizon)
		if wi != wj {
			return wi > wj
		}
		return rest[i].LastAccessed.After(rest[j].LastAccessed)
	})

	win := Window{UserID: userID, SessionID: sessionID}
	for _, m := range critical {
		win.Entries = append(win.Entries, *m)
		win.TotalTokens += approxTokens(m.Content)
	}
	for _, m := range rest {
		cost := approxTokens(m.Content)
		if win.TotalTokens+cost > maxTokens {
			win.PrunedIDs = append(win.PrunedIDs, m.ID)
			continue
		}
		win.Entries = append(win.Entries, *m)
		win.TotalTokens += cost
	}
	return win
}
