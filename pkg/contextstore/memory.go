// Package contextstore implements persistent long-term memory: typed,
// tagged, priority-weighted entries with semantic retrieval and
// token-bounded windowing (spec.md §4.3). It follows tarsy's
// pkg/models/session.go entry shape and pkg/queue/pool.go's bounded-
// eviction pattern, generalized from alert sessions to memory entries.
package contextstore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/corepath/partner/pkg/domain"
)

// Memory is one Context Store entry (spec.md §3 "Memory Entry").
type Memory struct {
	ID           string               `json:"id"`
	UserID       string               `json:"user_id"`
	SessionID    string               `json:"session_id"`
	Content      string               `json:"content"`
	Vector       []float32            `json:"vector,omitempty"`
	Tags         []string             `json:"tags"`
	Kind         domain.MemoryKind    `json:"kind"`
	Priority     domain.MemoryPriority `json:"priority"`
	AccessCount  int                  `json:"access_count"`
	LastAccessed time.Time            `json:"last_accessed"`
	Relevance    float64              `json:"relevance"`
	ExpiresAt    *time.Time           `json:"expires_at,omitempty"`
	ParentID     string               `json:"parent_id,omitempty"`
	Consolidated bool                 `json:"consolidated"`
	SourceIDs    []string             `json:"source_ids,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// Expired reports whether a memory has passed its expiry.
func (m Memory) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && now.After(*m.ExpiresAt)
}

// deterministicID hashes (user, content, timestamp) into the Memory's id,
// per spec.md §3: "Id = deterministic hash of (user, content, timestamp)".
func deterministicID(userID, content string, ts time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", userID, content, ts.UnixNano())))
	return hex.EncodeToString(sum[:])[:24]
}
