package monitor

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/corepath/partner/pkg/config"
	"github.com/corepath/partner/pkg/domain"
)

// rdiScore is a private, per-user Reality Drift Index measurement. It is
// never exposed outside this package except through ExportAggregate's
// hashed, aggregated form (spec.md §4.6 hard invariant).
type rdiScore struct {
	semantic float64
	factual  float64
	logical  float64
}

func (s rdiScore) weighted(w config.RDIWeights) float64 {
	total := w.Semantic + w.Factual + w.Logical
	if total <= 0 {
		return (s.semantic + s.factual + s.logical) / 3
	}
	return (s.semantic*w.Semantic + s.factual*w.Factual + s.logical*w.Logical) / total
}

func band(score float64) domain.RDIBand {
	switch {
	case score >= 0.9:
		return domain.RDIAligned
	case score >= 0.7:
		return domain.RDIMinor
	case score >= 0.5:
		return domain.RDIModerate
	case score >= 0.3:
		return domain.RDISignificant
	default:
		return domain.RDICritical
	}
}

// RDI computes and stores per-user drift scores strictly on-device. No
// method on this type returns a raw score keyed by an identifiable user
// id to a caller outside the package boundary except Band, which reports
// only the bucketed label for the calling user's own dashboard.
type RDI struct {
	cfg config.RDIWeights

	mu     sync.Mutex
	scores map[string]rdiScore // user id -> latest measurement, device-local only
}

// NewRDI builds an RDI monitor using the configured sub-score weights.
func NewRDI(cfg config.RDIWeights) *RDI {
	return &RDI{cfg: cfg, scores: make(map[string]rdiScore)}
}

// Record stores a fresh drift measurement for a user, each sub-score in
// [0, 1] where 1.0 means no drift from the consensus baseline.
func (r *RDI) Record(userID string, semantic, factual, logical float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores[userID] = rdiScore{semantic: semantic, factual: factual, logical: logical}
}

// Band reports the caller's own bucketed RDI label. Intended for a user's
// private dashboard projection only.
func (r *RDI) Band(userID string) (domain.RDIBand, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scores[userID]
	if !ok {
		return "", false
	}
	return band(s.weighted(r.cfg)), true
}

// AggregateExport is the only form an RDI measurement may take when it
// leaves the device: a one-way hash of the user id plus a bucket label,
// never the raw score or a reversible identifier.
type AggregateExport struct {
	HashedUserID string
	Band         domain.RDIBand
}

// ExportAggregate returns hashed, bucketed exports for every user with a
// recorded score. optIn must be true for any user whose explicit consent
// to export has been confirmed by the caller; RDI itself holds no opinion
// on consent bookkeeping, it only refuses to run when optIn is false.
func (r *RDI) ExportAggregate(optIn bool) []AggregateExport {
	if !optIn {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]AggregateExport, 0, len(r.scores))
	for userID, s := range r.scores {
		out = append(out, AggregateExport{HashedUserID: hashUserID(userID), Band: band(s.weighted(r.cfg))})
	}
	return out
}

func hashUserID(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])
}
