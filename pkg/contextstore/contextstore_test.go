package contextstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corepath/partner/pkg/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestStoreMemoryAndGet(t *testing.T) {
	s := newTestStore(t)
	m, err := s.StoreMemory("alice", "sess-1", "likes dark mode", domain.MemoryPreference, domain.PriorityMedium, []string{"ui"}, "", nil)
	require.NoError(t, err)
	require.NotEmpty(t, m.ID)

	got, ok := s.Get(m.ID)
	require.True(t, ok)
	assert.Equal(t, 1, got.AccessCount)
}

func TestExpiredNeverReturnedBySearch(t *testing.T) {
	s := newTestStore(t)
	ttl := -time.Hour // already expired
	m, err := s.StoreMemory("alice", "sess-1", "stale fact", domain.MemoryFact, domain.PriorityLow, nil, "", &ttl)
	require.NoError(t, err)
	require.NotEmpty(t, m.ID)

	results := s.Search("alice", SearchQuery{Limit: 10})
	for _, r := range results {
		assert.NotEqual(t, m.ID, r.ID, "expired memory must never be returned")
	}
}

func TestSearchRanksByCosineTimesRelevance(t *testing.T) {
	s := newTestStore(t)
	m1, err := s.StoreMemory("alice", "sess-1", "close match", domain.MemoryFact, domain.PriorityMedium, nil, "", nil)
	require.NoError(t, err)
	m2, err := s.StoreMemory("alice", "sess-1", "far match", domain.MemoryFact, domain.PriorityMedium, nil, "", nil)
	require.NoError(t, err)

	require.NoError(t, s.SetVector(m1.ID, []float32{1, 0, 0}))
	require.NoError(t, s.SetVector(m2.ID, []float32{0, 1, 0}))

	results := s.Search("alice", SearchQuery{QueryVector: []float32{1, 0, 0}, Limit: 10})
	require.NotEmpty(t, results)
	assert.Equal(t, m1.ID, results[0].ID)
}

func TestSearchFiltersByKindAndTags(t *testing.T) {
	s := newTestStore(t)
	_, err := s.StoreMemory("alice", "sess-1", "a fact", domain.MemoryFact, domain.PriorityMedium, []string{"work"}, "", nil)
	require.NoError(t, err)
	_, err = s.StoreMemory("alice", "sess-1", "a goal", domain.MemoryGoal, domain.PriorityMedium, []string{"health"}, "", nil)
	require.NoError(t, err)

	results := s.Search("alice", SearchQuery{Kind: domain.MemoryGoal, Limit: 10})
	require.Len(t, results, 1)
	assert.Equal(t, domain.MemoryGoal, results[0].Kind)

	tagged := s.Search("alice", SearchQuery{Tags: []string{"work"}, Limit: 10})
	require.Len(t, tagged, 1)
	assert.Contains(t, tagged[0].Tags, "work")
}

func TestBuildWindowRespectsTokenCap(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 20; i++ {
		_, err := s.StoreMemory("alice", "sess-1", "some reasonably long fact about the user that takes up tokens", domain.MemoryFact, domain.PriorityLow, nil, "", nil)
		require.NoError(t, err)
	}

	win := s.BuildWindow("alice", "sess-1", nil, 40)
	assert.LessOrEqual(t, win.TotalTokens, 40)
	assert.NotEmpty(t, win.PrunedIDs, "with a tight cap some low-priority entries should be pruned")
}

func TestBuildWindowNeverPrunesCritical(t *testing.T) {
	s := newTestStore(t)
	critical, err := s.StoreMemory("alice", "sess-1", "critical safety fact that must always be present in the window regardless of size", domain.MemoryFact, domain.PriorityCritical, nil, "", nil)
	require.NoError(t, err)

	win := s.BuildWindow("alice", "sess-1", nil, 1)
	ids := make([]string, 0, len(win.Entries))
	for _, e := range win.Entries {
		ids = append(ids, e.ID)
	}
	assert.Contains(t, ids, critical.ID)
	assert.NotContains(t, win.PrunedIDs, critical.ID)
}

func TestBuildWindowExplicitIDsPreservesOrderAndEvictsLowerRelevance(t *testing.T) {
	s := newTestStore(t)
	// Give the earlier-created, lower-priority entry a higher access count;
	// the explicit-ids contract admits entries in caller order
	// (spec.md §4.3 "include in order") rather than re-sorting them.
	low, err := s.StoreMemory("alice", "sess-1", "low relevance filler content for eviction", domain.MemoryFact, domain.PriorityLow, nil, "", nil)
	require.NoError(t, err)
	high, err := s.StoreMemory("alice", "sess-1", "high relevance recent content", domain.MemoryFact, domain.PriorityHigh, nil, "", nil)
	require.NoError(t, err)
	// Even with ten accesses, low's composite relevance (about 0.6) stays
	// below high's (about 0.72), so low is the entry evicted to make room.
	for i := 0; i < 10; i++ {
		_, ok := s.Get(low.ID)
		require.True(t, ok)
	}

	// A cap that fits low alone, and fits high alone, but not both: low
	// is admitted first (explicit order), then high must evict it to fit.
	maxTokens := approxTokens(low.Content) + 2
	win := s.BuildWindow("alice", "sess-1", []string{low.ID, high.ID}, maxTokens)

	ids := make([]string, 0, len(win.Entries))
	for _, e := range win.Entries {
		ids = append(ids, e.ID)
	}
	assert.Contains(t, ids, high.ID, "the later explicit id must be admitted by evicting room")
	assert.NotContains(t, ids, low.ID, "the lower-relevance already-admitted entry must be evicted")
	assert.Contains(t, win.PrunedIDs, low.ID)
}

func TestBuildWindowExplicitIDsNeverEvictsCritical(t *testing.T) {
	s := newTestStore(t)
	critical, err := s.StoreMemory("alice", "sess-1", "critical safety fact that must always remain", domain.MemoryFact, domain.PriorityCritical, nil, "", nil)
	require.NoError(t, err)
	other, err := s.StoreMemory("alice", "sess-1", "ordinary fact that can be evicted if needed", domain.MemoryFact, domain.PriorityMedium, nil, "", nil)
	require.NoError(t, err)

	win := s.BuildWindow("alice", "sess-1", []string{critical.ID, other.ID}, approxTokens(critical.Content))

	ids := make([]string, 0, len(win.Entries))
	for _, e := range win.Entries {
		ids = append(ids, e.ID)
	}
	assert.Contains(t, ids, critical.ID)
	assert.NotContains(t, win.PrunedIDs, critical.ID)
}

func TestPruneExpiredSkipsCritical(t *testing.T) {
	s := newTestStore(t)
	ttl := -time.Hour
	_, err := s.StoreMemory("alice", "sess-1", "expired critical", domain.MemoryFact, domain.PriorityCritical, nil, "", &ttl)
	require.NoError(t, err)
	_, err = s.StoreMemory("alice", "sess-1", "expired low", domain.MemoryFact, domain.PriorityLow, nil, "", &ttl)
	require.NoError(t, err)

	removed, err := s.PruneExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestConsolidateIntoKeepsSourcesRetrievableAndInheritsMaxPriority(t *testing.T) {
	s := newTestStore(t)
	low, err := s.StoreMemory("alice", "sess-1", "low detail one", domain.MemoryFact, domain.PriorityLow, nil, "", nil)
	require.NoError(t, err)
	high, err := s.StoreMemory("alice", "sess-1", "high detail one", domain.MemoryFact, domain.PriorityHigh, nil, "", nil)
	require.NoError(t, err)

	summary, err := s.ConsolidateInto("alice", "sess-1", "summary of both details", []string{low.ID, high.ID})
	require.NoError(t, err)
	assert.True(t, summary.Consolidated)
	assert.Equal(t, domain.PriorityHigh, summary.Priority)

	// sources remain independently retrievable
	_, ok := s.Get(low.ID)
	assert.True(t, ok)
	_, ok = s.Get(high.ID)
	assert.True(t, ok)
}

func TestConsolidateIntoAllEphemeralInheritsEphemeralNotLow(t *testing.T) {
	s := newTestStore(t)
	a, err := s.StoreMemory("alice", "sess-1", "ephemeral one", domain.MemoryFact, domain.PriorityEphemeral, nil, "", nil)
	require.NoError(t, err)
	b, err := s.StoreMemory("alice", "sess-1", "ephemeral two", domain.MemoryFact, domain.PriorityEphemeral, nil, "", nil)
	require.NoError(t, err)

	summary, err := s.ConsolidateInto("alice", "sess-1", "summary of both ephemeral notes", []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityEphemeral, summary.Priority, "an all-ephemeral source set must not inflate to PriorityLow")
}

func TestDecayLowersStaleRelevance(t *testing.T) {
	s := newTestStore(t)
	s.relevanceHorizon = time.Millisecond
	m, err := s.StoreMemory("alice", "sess-1", "aging fact", domain.MemoryFact, domain.PriorityMedium, nil, "", nil)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	updated, err := s.Decay()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, updated, 1)

	got, ok := s.Get(m.ID)
	require.True(t, ok)
	assert.LessOrEqual(t, got.Relevance, 1.0)
}

func TestShouldConsolidateThreshold(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.ShouldConsolidate("alice"))
	for i := 0; i < consolidationThreshold; i++ {
		_, err := s.StoreMemory("alice", "sess-1", "filler", domain.MemoryFact, domain.PriorityLow, nil, "", nil)
		require.NoError(t, err)
	}
	assert.True(t, s.ShouldConsolidate("alice"))
}
