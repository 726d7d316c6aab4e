package contextstore

import (
	"math"
	"sort"
	"time"

	"github.com/corepath/partner/pkg/domain"
)

// SearchQuery narrows a retrieval call.
type SearchQuery struct {
	QueryVector []float32
	Kind        domain.MemoryKind // empty = any
	Tags        []string          // empty = any; otherwise entry must have all tags
	Limit       int
	MinRelevance float64
}

// scored pairs a memory with its combined retrieval score for sorting.
type scored struct {
	mem   Memory
	score float64
}

// Search ranks a user's non-expired entries by cosine(query, entry) *
// relevance, descending, ties broken by recency (spec.md §4.3). Accessing
// a result updates its access_count/last_accessed, exactly like Get.
func (s *Store) Search(userID string, q SearchQuery) []Memory {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var candidates []scored
	for _, m := range s.entries {
		if m.UserID != userID || m.Expired(now) {
			continue
		}
		if q.Kind != "" && m.Kind != q.Kind {
			continue
		}
		if !hasAllTags(m.Tags, q.Tags) {
			continue
		}

		sim := 1.0
		if len(q.QueryVector) > 0 && len(m.Vector) > 0 {
			sim = cosineSimilarity(q.QueryVector, m.Vector)
		}
		score := sim * m.Relevance
		if score < q.MinRelevance {
			continue
		}
		candidates = append(candidates, scored{mem: *m, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].mem.LastAccessed.After(candidates[j].mem.LastAccessed)
	})

	limit := q.Limit
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}

	out := make([]Memory, 0, limit)
	for i := 0; i < limit; i++ {
		id := candidates[i].mem.ID
		m := s.entries[id]
		m.AccessCount++
		m.LastAccessed = time.Now()
		_ = s.persist.WriteRecord(m.ID, m)
		out = append(out, *m)
	}
	return out
}

func hasAllTags(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]bool, len(have))
	for _, t := range have {
		set[t] = true
	}
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}

// cosineSimilarity computes cos(theta) between two equal-length vectors.
// Mismatched lengths or a zero vector yield 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
