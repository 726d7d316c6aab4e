// Package monitor implements the Agency Monitor suite: ARI (agency
// retention), EDM (epistemic debt), and RDI (reality drift) (spec.md
// §4.6). Grounded on original_source/src/ai_pal/monitoring/{ari_monitor.py,
// edm_monitor.py} for thresholds and trend computation, and on tarsy's
// pkg/models/session.go append-only snapshot pattern for storage.
package monitor

import (
	"sort"
	"sync"
	"time"

	"github.com/corepath/partner/pkg/config"
	"github.com/corepath/partner/pkg/domain"
	"github.com/corepath/partner/pkg/storage"
)

// EventPublisher is the subset of events.Manager ARI needs to broadcast
// alerts over the external collaborator API's subscription stream
// (spec.md §6). Defined locally, as with gates.Tribunal's FeedbackSink, so
// monitor doesn't gain a dependency edge on the events package.
type EventPublisher interface {
	Publish(channel string, v any)
}

// ChannelARIAlert mirrors events.ChannelARIAlert without importing the
// events package.
const ChannelARIAlert = "ari-alert"

// ARI appends Agency Snapshots and reports on trends over a window.
type ARI struct {
	cfg   config.MonitorConfig
	store *storage.Store

	mu        sync.Mutex
	snapshots map[string][]domain.AgencySnapshot // user id -> ordered snapshots

	publisher EventPublisher
}

// SetPublisher wires an event bus into ARI so threshold alerts raised by
// RecordSnapshot reach SPEC_FULL.md §4.10's subscription stream. Optional:
// a nil publisher leaves RecordSnapshot's return-value-only behavior
// unchanged, which is what the other ARI tests in this package rely on.
func (a *ARI) SetPublisher(p EventPublisher) {
	a.publisher = p
}

// NewARI builds an ARI monitor rooted at dataDir/monitor/ari, replaying any
// previously persisted snapshots into memory.
func NewARI(cfg config.MonitorConfig, dataDir string) (*ARI, error) {
	root, err := storage.New(dataDir)
	if err != nil {
		return nil, err
	}
	sub, err := root.Sub("monitor/ari")
	if err != nil {
		return nil, err
	}
	a := &ARI{cfg: cfg, store: sub, snapshots: make(map[string][]domain.AgencySnapshot)}

	ids, err := sub.ListIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		var snap domain.AgencySnapshot
		if err := sub.ReadRecord(id, &snap); err == nil {
			a.snapshots[snap.UserID] = append(a.snapshots[snap.UserID], snap)
		}
	}
	for user := range a.snapshots {
		sort.Slice(a.snapshots[user], func(i, j int) bool {
			return a.snapshots[user][i].Timestamp.Before(a.snapshots[user][j].Timestamp)
		})
	}
	return a, nil
}

// Alert is an immediate threshold breach raised by RecordSnapshot.
type Alert struct {
	UserID    string
	Reason    string
	Metric    string
	Value     float64
	Threshold float64
	At        time.Time
}

// RecordSnapshot appends a snapshot and returns any immediate alerts
// raised by it (spec.md §4.6: Δagency < -0.1, BHIR < 0.8, skill delta <
// -0.15, reliance > 0.9).
func (a *ARI) RecordSnapshot(snap domain.AgencySnapshot) ([]Alert, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := snap.UserID + "-" + snap.RequestID
	if err := a.store.WriteRecord(id, snap); err != nil {
		return nil, err
	}
	a.snapshots[snap.UserID] = append(a.snapshots[snap.UserID], snap)

	var alerts []Alert
	if snap.DeltaAgency < a.cfg.DeltaAgencyAlert {
		alerts = append(alerts, Alert{UserID: snap.UserID, Reason: "agency loss", Metric: "delta_agency", Value: snap.DeltaAgency, Threshold: a.cfg.DeltaAgencyAlert, At: snap.Timestamp})
	}
	if snap.BHIR < a.cfg.BHIRAlert {
		alerts = append(alerts, Alert{UserID: snap.UserID, Reason: "low benefit-to-human-input ratio", Metric: "bhir", Value: snap.BHIR, Threshold: a.cfg.BHIRAlert, At: snap.Timestamp})
	}
	if snap.SkillDelta() < a.cfg.SkillDeltaAlert {
		alerts = append(alerts, Alert{UserID: snap.UserID, Reason: "skill atrophy", Metric: "skill_delta", Value: snap.SkillDelta(), Threshold: a.cfg.SkillDeltaAlert, At: snap.Timestamp})
	}
	if snap.AIReliance > a.cfg.RelianceAlert {
		alerts = append(alerts, Alert{UserID: snap.UserID, Reason: "excessive AI reliance", Metric: "ai_reliance", Value: snap.AIReliance, Threshold: a.cfg.RelianceAlert, At: snap.Timestamp})
	}

	if a.publisher != nil {
		for _, alert := range alerts {
			a.publisher.Publish(ChannelARIAlert, alert)
		}
	}
	return alerts, nil
}

// Report is the periodic Agency Retention Index summary for a user.
type Report struct {
	UserID          string
	SnapshotCount   int
	AvgDeltaAgency  float64
	AvgBHIR         float64
	AvgTaskEfficacy float64
	AvgSkillDelta   float64
	Trend           domain.ARITrend
}

// Generate computes a Report over a user's most recent window snapshots
// (MonitorConfig.ARIWindowSize), following spec.md §4.6's trend rule:
// compare the newest third of samples to the oldest third; if the window
// average falls below CriticalTrendAverage the trend is forced critical.
func (a *ARI) Generate(userID string) Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	all := a.snapshots[userID]
	window := a.cfg.ARIWindowSize
	if window <= 0 || window > len(all) {
		window = len(all)
	}
	samples := all[len(all)-window:]

	if len(samples) == 0 {
		return Report{UserID: userID, Trend: domain.TrendStable}
	}

	var sumDelta, sumBHIR, sumEfficacy, sumSkill float64
	for _, s := range samples {
		sumDelta += s.DeltaAgency
		sumBHIR += s.BHIR
		sumEfficacy += s.TaskEfficacy
		sumSkill += s.SkillDelta()
	}
	n := float64(len(samples))
	r := Report{
		UserID:          userID,
		SnapshotCount:   len(samples),
		AvgDeltaAgency:  sumDelta / n,
		AvgBHIR:         sumBHIR / n,
		AvgTaskEfficacy: sumEfficacy / n,
		AvgSkillDelta:   sumSkill / n,
	}
	r.Trend = a.trend(samples, r.AvgDeltaAgency)
	return r
}

func (a *ARI) trend(samples []domain.AgencySnapshot, windowAvg float64) domain.ARITrend {
	if windowAvg < a.cfg.CriticalTrendAverage {
		return domain.TrendCritical
	}
	third := len(samples) / 3
	if third == 0 {
		return domain.TrendStable
	}

	oldest := samples[:third]
	newest := samples[len(samples)-third:]
	avg := func(xs []domain.AgencySnapshot) float64 {
		var sum float64
		for _, s := range xs {
			sum += s.DeltaAgency
		}
		return sum / float64(len(xs))
	}

	delta := avg(newest) - avg(oldest)
	switch {
	case delta > 0.05:
		return domain.TrendIncreasing
	case delta < -0.05:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}
