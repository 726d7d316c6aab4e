package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corepath/partner/pkg/config"
	"github.com/corepath/partner/pkg/domain"
)

func testMonitorConfig() config.MonitorConfig {
	return config.MonitorConfig{
		ARIWindowSize:        10,
		DeltaAgencyAlert:     -0.1,
		BHIRAlert:            0.8,
		SkillDeltaAlert:      -0.15,
		RelianceAlert:        0.9,
		CriticalTrendAverage: -0.2,
		CitationWindowChars:  100,
		AutoResolveVerified:  true,
		RDIWeights:           config.RDIWeights{Semantic: 1, Factual: 1, Logical: 1},
	}
}

func TestARIRecordSnapshotRaisesAlerts(t *testing.T) {
	a, err := NewARI(testMonitorConfig(), t.TempDir())
	require.NoError(t, err)

	alerts, err := a.RecordSnapshot(domain.AgencySnapshot{
		UserID: "alice", RequestID: "r1", Timestamp: time.Now(),
		DeltaAgency: -0.2, BHIR: 0.5, SkillBefore: 0.8, SkillAfter: 0.5, AIReliance: 0.95,
	})
	require.NoError(t, err)
	assert.Len(t, alerts, 4)
}

func TestARIGenerateTrendForcedCriticalBelowAverage(t *testing.T) {
	a, err := NewARI(testMonitorConfig(), t.TempDir())
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		_, err := a.RecordSnapshot(domain.AgencySnapshot{UserID: "bob", RequestID: string(rune('a' + i)), Timestamp: time.Now(), DeltaAgency: -0.3, BHIR: 0.9})
		require.NoError(t, err)
	}
	report := a.Generate("bob")
	assert.Equal(t, domain.TrendCritical, report.Trend)
}

func TestARIGenerateTrendIncreasing(t *testing.T) {
	a, err := NewARI(testMonitorConfig(), t.TempDir())
	require.NoError(t, err)

	deltas := []float64{0.0, 0.0, 0.0, 0.2, 0.2, 0.2}
	for i, d := range deltas {
		_, err := a.RecordSnapshot(domain.AgencySnapshot{UserID: "carol", RequestID: string(rune('a' + i)), Timestamp: time.Now(), DeltaAgency: d, BHIR: 0.9})
		require.NoError(t, err)
	}
	report := a.Generate("carol")
	assert.Equal(t, domain.TrendIncreasing, report.Trend)
}

func TestEDMAnalyzeTextDetectsUnfalsifiable(t *testing.T) {
	e, err := NewEDM(testMonitorConfig(), t.TempDir(), HeuristicFactChecker{})
	require.NoError(t, err)

	debts, err := e.AnalyzeText("req-1", "Clearly, this approach always works for everyone.")
	require.NoError(t, err)
	require.NotEmpty(t, debts)
	assert.Equal(t, domain.DebtUnfalsifiable, debts[0].Kind)
}

func TestEDMSuppressesMissingCitationWhenCitationNearby(t *testing.T) {
	e, err := NewEDM(testMonitorConfig(), t.TempDir(), HeuristicFactChecker{})
	require.NoError(t, err)

	withCitation, err := e.AnalyzeText("req-2", "Studies show this works [1].")
	require.NoError(t, err)
	for _, d := range withCitation {
		assert.NotEqual(t, domain.DebtMissingCitation, d.Kind)
	}

	withoutCitation, err := e.AnalyzeText("req-3", "Studies show this works great for anyone who tries it out today.")
	require.NoError(t, err)
	found := false
	for _, d := range withoutCitation {
		if d.Kind == domain.DebtMissingCitation {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEDMFactCheckCascadeAutoResolvesVerified(t *testing.T) {
	checker := EncyclopediaFactChecker{Lookup: func(claim string) (string, bool) { return "a known fact", true }}
	e, err := NewEDM(testMonitorConfig(), t.TempDir(), checker)
	require.NoError(t, err)

	debts, err := e.AnalyzeText("req-4", "Studies show this is true without any nearby source at all.")
	require.NoError(t, err)
	require.NotEmpty(t, debts)
	assert.True(t, debts[0].Resolved)
	assert.Equal(t, domain.FactCheckVerified, debts[0].FactCheckStatus)
	assert.Equal(t, "auto_verified", debts[0].ResolutionMethod, "spec.md scenario 6 requires the literal resolution_method string auto_verified")
}

type recordingPublisher struct {
	published []publishedEvent
}

type publishedEvent struct {
	channel string
	payload any
}

func (p *recordingPublisher) Publish(channel string, v any) {
	p.published = append(p.published, publishedEvent{channel: channel, payload: v})
}

func TestARIPublishesAlertsToEventBus(t *testing.T) {
	a, err := NewARI(testMonitorConfig(), t.TempDir())
	require.NoError(t, err)
	pub := &recordingPublisher{}
	a.SetPublisher(pub)

	_, err = a.RecordSnapshot(domain.AgencySnapshot{
		UserID: "alice", RequestID: "r1", Timestamp: time.Now(),
		DeltaAgency: -0.2, BHIR: 0.5, SkillBefore: 0.8, SkillAfter: 0.5, AIReliance: 0.95,
	})
	require.NoError(t, err)
	require.NotEmpty(t, pub.published)
	for _, e := range pub.published {
		assert.Equal(t, ChannelARIAlert, e.channel)
	}
}

func TestEDMPublishesDetectionsToEventBus(t *testing.T) {
	e, err := NewEDM(testMonitorConfig(), t.TempDir(), HeuristicFactChecker{})
	require.NoError(t, err)
	pub := &recordingPublisher{}
	e.SetPublisher(pub)

	debts, err := e.AnalyzeText("req-1", "Clearly, this approach always works for everyone.")
	require.NoError(t, err)
	require.NotEmpty(t, debts)
	require.Len(t, pub.published, len(debts))
	for _, ev := range pub.published {
		assert.Equal(t, ChannelEDMDetection, ev.channel)
	}
}

func TestRDIScoreNeverExposedWithoutOptIn(t *testing.T) {
	r := NewRDI(config.RDIWeights{Semantic: 1, Factual: 1, Logical: 1})
	r.Record("dave", 0.9, 0.8, 0.95)

	exports := r.ExportAggregate(false)
	assert.Empty(t, exports)

	exports = r.ExportAggregate(true)
	require.Len(t, exports, 1)
	assert.NotEqual(t, "dave", exports[0].HashedUserID)
	assert.Equal(t, domain.RDIMinor, exports[0].Band)
}

func TestRDIBandBucketsCorrectly(t *testing.T) {
	r := NewRDI(config.RDIWeights{Semantic: 1, Factual: 1, Logical: 1})
	r.Record("erin", 0.2, 0.2, 0.2)
	b, ok := r.Band("erin")
	require.True(t, ok)
	assert.Equal(t, domain.RDICritical, b)
}
