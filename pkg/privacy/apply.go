package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/corepath/partner/pkg/domain"
)

// ErrBlocked is returned by Apply when action is ActionBlock: the caller
// must refuse the request rather than use the (unmodified) text.
var ErrBlocked = errors.New("privacy: request blocked by PII policy")

// Apply transforms text by running every detection through action, and
// returns the transformed text alongside the detections it acted on.
// ActionBlock returns ErrBlocked and the original text unchanged.
func (s *Service) Apply(text string, action domain.PrivacyAction) (string, []Detection, error) {
	detections := s.Detect(text)
	if len(detections) == 0 {
		return text, detections, nil
	}
	if action == domain.ActionBlock {
		return text, detections, ErrBlocked
	}

	var b strings.Builder
	cursor := 0
	for _, d := range detections {
		if d.Start < cursor {
			continue // overlapping detection, already covered
		}
		b.WriteString(text[cursor:d.Start])
		b.WriteString(s.transform(d, action))
		cursor = d.End
	}
	b.WriteString(text[cursor:])
	return b.String(), detections, nil
}

func (s *Service) transform(d Detection, action domain.PrivacyAction) string {
	switch action {
	case domain.ActionRedact:
		return "[REDACTED]"
	case domain.ActionMask:
		return maskKeepFormat(d.Text)
	case domain.ActionHash:
		sum := sha256.Sum256([]byte(d.Text))
		return "[HASH:" + hex.EncodeToString(sum[:])[:12] + "]"
	case domain.ActionTokenize:
		return s.tokenize(d)
	default:
		return "[REDACTED]"
	}
}

// maskKeepFormat replaces letters/digits with "*" while preserving
// separators (dashes, dots, @) so the shape of the original is still
// visible, matching spec.md's "keep format, obscure characters".
func maskKeepFormat(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune('*')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// tokenize stores a reversible mapping from an opaque token to the
// original text in the service's in-memory token table. The table is not
// persisted, so tokens cannot be reversed after a restart.
func (s *Service) tokenize(d Detection) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := "[TOKEN:" + randomToken() + "]"
	s.tokens[token] = d.Text
	return token
}

// Detokenize reverses a token previously produced by Apply with
// ActionTokenize. Returns ("", false) if the token is unknown.
func (s *Service) Detokenize(token string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.tokens[token]
	return v, ok
}
