package contextstore

import (
	"fmt"
	"time"

	"github.com/corepath/partner/pkg/domain"
)

// UnconsolidatedCount returns how many of a user's top-level entries (no
// ParentID) are not themselves consolidated summaries; entries stored with
// a ParentID, or folded into a summary, are not counted. Callers use this against
// consolidationThreshold to decide whether ConsolidateInto should run.
func (s *Store) UnconsolidatedCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, m := range s.entries {
		if m.UserID == userID && !m.Consolidated && m.ParentID == "" {
			n++
		}
	}
	return n
}

// ShouldConsolidate reports whether a user has crossed consolidationThreshold
// unconsolidated entries.
func (s *Store) ShouldConsolidate(userID string) bool {
	return s.UnconsolidatedCount(userID) >= consolidationThreshold
}

// ConsolidateInto folds sourceIDs into a single new consolidated summary
// entry. Nothing is deleted: the sources stay in the store and remain
// independently retrievable, with their content unchanged and their
// ParentID set to the new summary's id. The summary memory is tagged
// Consolidated, lists its sources in SourceIDs and carries the maximum
// priority among them so a critical source is never diluted by folding it
// into a summary.
func (s *Store) ConsolidateInto(userID, sessionID, summary string, sourceIDs []string) (Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxPriority := domain.PriorityEphemeral
	var kept []string
	for _, id := range sourceIDs {
		src, ok := s.entries[id]
		if !ok || src.UserID != userID {
			continue
		}
		if src.Priority.Weight() > maxPriority.Weight() {
			maxPriority = src.Priority
		}
		kept = append(kept, id)
	}
	if len(kept) == 0 {
		return Memory{}, fmt.Errorf("contextstore: no valid source entries to consolidate")
	}

	now := time.Now()
	m := &Memory{
		ID:           deterministicID(userID, summary, now),
		UserID:       userID,
		SessionID:    sessionID,
		Content:      summary,
		Kind:         domain.MemoryFact,
		Priority:     maxPriority,
		Relevance:    1.0,
		Consolidated: true,
		SourceIDs:    kept,
		LastAccessed: now,
		CreatedAt:    now,
	}
	s.entries[m.ID] = m
	if err := s.persist.WriteRecord(m.ID, m); err != nil {
		return Memory{}, fmt.Errorf("contextstore: persist consolidated summary: %w", err)
	}

	for _, id := range kept {
		src := s.entries[id]
		src.ParentID = m.ID
		if err := s.persist.WriteRecord(src.ID, src); err != nil {
			return *m, err
		}
	}
	return *m, nil
}
