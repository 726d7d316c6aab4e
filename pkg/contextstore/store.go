package contextstore

import (
	"fmt"
	"sync"
	"time"

	"github.com/corepath/partner/pkg/domain"
	"github.com/corepath/partner/pkg/storage"
)

// defaultRelevanceHorizon drives the batch decay formula in decay.go;
// consolidationThreshold is the backlog ShouldConsolidate checks against.
const (
	defaultRelevanceHorizon = 30 * 24 * time.Hour
	consolidationThreshold  = 50 // unconsolidated entries before consolidation
)

// Store is the Context Store: an id-keyed arena of memory entries plus
// the per-user/session index needed for retrieval and windowing. One
// Store instance owns its data exclusively; external callers receive only
// copies, per spec.md §5.
type Store struct {
	mu sync.RWMutex

	persist *storage.Store
	entries map[string]*Memory // id -> memory

	relevanceHorizon time.Duration
}

// New creates a Context Store rooted at dataDir/context.
func New(dataDir string) (*Store, error) {
	root, err := storage.New(dataDir)
	if err != nil {
		return nil, err
	}
	memStore, err := root.Sub("context/memories")
	if err != nil {
		return nil, err
	}
	s := &Store{
		persist:          memStore,
		entries:          make(map[string]*Memory),
		relevanceHorizon: defaultRelevanceHorizon,
	}

	ids, err := memStore.ListIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		var m Memory
		if err := memStore.ReadRecord(id, &m); err == nil {
			cp := m
			s.entries[m.ID] = &cp
		}
	}
	return s, nil
}

// StoreMemory persists a new memory entry and returns a copy of it.
func (s *Store) StoreMemory(userID, sessionID, content string, kind domain.MemoryKind, priority domain.MemoryPriority, tags []string, parentID string, ttl *time.Duration) (Memory, error) {
	now := time.Now()
	m := &Memory{
		ID:           deterministicID(userID, content, now),
		UserID:       userID,
		SessionID:    sessionID,
		Content:      content,
		Tags:         append([]string(nil), tags...),
		Kind:         kind,
		Priority:     priority,
		Relevance:    1.0,
		ParentID:     parentID,
		LastAccessed: now,
		CreatedAt:    now,
	}
	if ttl != nil {
		exp := now.Add(*ttl)
		m.ExpiresAt = &exp
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[m.ID] = m
	if err := s.persist.WriteRecord(m.ID, m); err != nil {
		return Memory{}, fmt.Errorf("contextstore: persist memory: %w", err)
	}
	return *m, nil
}

// SetVector attaches (or replaces) a semantic embedding on an existing
// memory; vector length must stay constant per store (spec.md §3
// invariant) and is enforced against the first vector ever stored.
func (s *Store) SetVector(id string, vec []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("contextstore: memory %s not found", id)
	}
	for _, other := range s.entries {
		if len(other.Vector) > 0 && len(other.Vector) != len(vec) {
			return fmt.Errorf("contextstore: vector length %d does not match store's constant length %d", len(vec), len(other.Vector))
		}
	}
	m.Vector = append([]float32(nil), vec...)
	return s.persist.WriteRecord(m.ID, m)
}

// Get returns a copy of a memory entry by id, updating its access stats.
func (s *Store) Get(id string) (Memory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.entries[id]
	if !ok {
		return Memory{}, false
	}
	m.AccessCount++
	m.LastAccessed = time.Now()
	_ = s.persist.WriteRecord(m.ID, m)
	return *m, true
}

// PruneExpired deletes every entry past its expiry and returns the count
// removed. Critical entries are never pruned, even if individually marked
// expired by mistake — spec.md's critical-never-pruned invariant takes
// precedence.
func (s *Store) PruneExpired() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, m := range s.entries {
		if m.Priority == domain.PriorityCritical {
			continue
		}
		if m.Expired(now) {
			delete(s.entries, id)
			if err := s.persist.DeleteRecord(id); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// Stats summarizes a user's memory footprint.
type Stats struct {
	TotalEntries int
	ByKind       map[domain.MemoryKind]int
	ByPriority   map[domain.MemoryPriority]int
}

// StatsFor computes a Stats snapshot for one user.
func (s *Store) StatsFor(userID string) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := Stats{ByKind: map[domain.MemoryKind]int{}, ByPriority: map[domain.MemoryPriority]int{}}
	for _, m := range s.entries {
		if m.UserID != userID {
			continue
		}
		out.TotalEntries++
		out.ByKind[m.Kind]++
		out.ByPriority[m.Priority]++
	}
	return out
}
