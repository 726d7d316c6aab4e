package contextstore

import (
	"time"

	"github.com/corepath/partner/pkg/domain"
)

// Decay recomputes relevance for every non-critical entry older than the
// store's horizon, using clamp(1 - age/horizon + min(0.3, 0.05*accesses),
// 0.1, 1) (spec.md §4.3). Entries whose score is unchanged are left alone
// so decay runs stay cheap on a mostly-fresh store.
func (s *Store) Decay() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	updated := 0
	for _, m := range s.entries {
		if m.Priority == domain.PriorityCritical {
			continue
		}
		age := now.Sub(m.CreatedAt)
		if age < s.relevanceHorizon {
			continue
		}

		bonus := 0.05 * float64(m.AccessCount)
		if bonus > 0.3 {
			bonus = 0.3
		}
		next := clamp01r(1-age.Seconds()/s.relevanceHorizon.Seconds()+bonus, 0.1, 1)
		if next == m.Relevance {
			continue
		}
		m.Relevance = next
		if err := s.persist.WriteRecord(m.ID, m); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

func clamp01r(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
