package privacy

import (
	"time"

	"github.com/corepath/partner/pkg/domain"
)

// RecordConsent writes a user's consent record. Every write — new grant or
// update — appends an audit entry, satisfying "writes produce an appended
// audit entry" in spec.md §4.2.
func (s *Service) RecordConsent(userID string, record domain.ConsentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.UserID = userID
	if record.GrantedAt.IsZero() {
		record.GrantedAt = time.Now()
	}

	before := map[string]any{}
	if prev, ok := s.consents[userID]; ok {
		before["consent_level"] = prev.Level
	}

	s.consents[userID] = &record
	if err := s.persistConsentsLocked(); err != nil {
		return err
	}

	entry := domain.AuditEntry{
		ID:        randomToken(),
		Timestamp: time.Now(),
		Actor:     userID,
		Action:    "consent.record",
		Before:    before,
		After:     map[string]any{"consent_level": record.Level},
	}
	return s.auditStore.AppendJSONLine("consent_audit.jsonl", entry)
}

// ConsentAllows reports whether a user has granted a specific permission.
// An absent, expired, or ConsentLevel=none record allows nothing.
func (s *Service) ConsentAllows(userID string, permission string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.consents[userID]
	if !ok || rec.Level == domain.ConsentNone || rec.Expired(time.Now()) {
		return false
	}
	switch permission {
	case "store":
		return rec.AllowStore
	case "analytics":
		return rec.AllowAnalytics
	case "personalize":
		return rec.AllowPersonalize
	case "share":
		return rec.AllowShare
	default:
		return false
	}
}

// Consent returns a read-only copy of a user's consent record, or the
// zero value (Level=none) if none is on file.
func (s *Service) Consent(userID string) domain.ConsentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.consents[userID]; ok {
		return *rec
	}
	return domain.ConsentRecord{UserID: userID, Level: domain.ConsentNone}
}

// Minimize strips fields from an arbitrary key/value payload the user has
// not consented to share, applying data-minimization on top of whatever
// redaction already ran. Only keys listed in gated are removed, and only
// when the user's consent does not allow the permission gated maps them
// to; everything else passes through unchanged.
func (s *Service) Minimize(userID string, data map[string]any, gated map[string]string) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if permission, ok := gated[k]; ok && !s.ConsentAllows(userID, permission) {
			continue
		}
		out[k] = v
	}
	return out
}
