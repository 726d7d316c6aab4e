package router

import (
	"github.com/corepath/partner/pkg/domain"
	"github.com/corepath/partner/pkg/storage"
)

// PersistentTracker wraps a PerformanceTracker with a storage.Store so
// every update is written to disk immediately, matching spec.md §4.5's
// "persisted on every update".
type PersistentTracker struct {
	*PerformanceTracker
	store *storage.Store
}

// NewPersistentTracker loads any previously persisted performance records
// under dataDir/router/performance and returns a tracker that writes
// through on every subsequent update.
func NewPersistentTracker(dataDir string) (*PersistentTracker, error) {
	root, err := storage.New(dataDir)
	if err != nil {
		return nil, err
	}
	perfStore, err := root.Sub("router/performance")
	if err != nil {
		return nil, err
	}
	pt := &PersistentTracker{PerformanceTracker: NewPerformanceTracker(), store: perfStore}

	ids, err := perfStore.ListIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		var snap domain.ModelPerformance
		if err := perfStore.ReadRecord(id, &snap); err == nil {
			pt.snaps[id] = snap
		}
	}
	return pt, nil
}

// RecordSuccess logs a success and persists the resulting snapshot.
func (pt *PersistentTracker) RecordSuccess(key string, latencyMS float64) (domain.ModelPerformance, error) {
	perf := pt.PerformanceTracker.RecordSuccess(key, latencyMS)
	return perf, pt.store.WriteRecord(sanitizeKey(key), perf)
}

// RecordFailure logs a failure and persists the resulting snapshot.
func (pt *PersistentTracker) RecordFailure(key string, latencyMS float64, err error) (domain.ModelPerformance, error) {
	perf := pt.PerformanceTracker.RecordFailure(key, latencyMS, err)
	return perf, pt.store.WriteRecord(sanitizeKey(key), perf)
}

func sanitizeKey(key string) string {
	out := make([]byte, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == ':' || c == '/' {
			out[i] = '_'
		} else {
			out[i] = c
		}
	}
	return string(out)
}
