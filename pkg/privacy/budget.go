package privacy

import (
	"time"

	"github.com/corepath/partner/pkg/domain"
)

// budgetLocked returns the user's budget, creating a fresh one (with
// service defaults) on first access, and rolling it over if the reset
// period has elapsed. Caller must hold s.mu.
func (s *Service) budgetLocked(userID string, now time.Time) *domain.PrivacyBudget {
	b, ok := s.budgets[userID]
	if !ok {
		b = &domain.PrivacyBudget{
			UserID:     userID,
			EpsilonCap: s.defaultEpsilonCap,
			QueryCap:   s.defaultQueryCap,
			LastReset:  now,
		}
		s.budgets[userID] = b
	}
	if now.Sub(b.LastReset) >= s.resetPeriod {
		b.EpsilonSpent = 0
		b.QueryCount = 0
		b.Exceeded = false
		b.LastReset = now
	}
	return b
}

// CheckAndCharge admits a request of the given epsilon cost against the
// user's differential-privacy budget. It returns false if either the
// epsilon or query counter would exceed its cap, leaving both counters
// unchanged and marking the budget Exceeded, per spec.md §4.2: "A request
// that would drive ε or query count above cap returns false and the
// request is refused."
func (s *Service) CheckAndCharge(userID string, epsilonCost float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.budgetLocked(userID, time.Now())
	if b.EpsilonSpent+epsilonCost > b.EpsilonCap || b.QueryCount+1 > b.QueryCap {
		b.Exceeded = true
		if err := s.persistBudgetsLocked(); err != nil {
			return false, err
		}
		return false, nil
	}

	b.EpsilonSpent += epsilonCost
	b.QueryCount++
	if err := s.persistBudgetsLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// Budget returns a read-only snapshot of a user's current budget state.
func (s *Service) Budget(userID string) domain.PrivacyBudget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.budgetLocked(userID, time.Now())
}
