package feedback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corepath/partner/pkg/config"
	"github.com/corepath/partner/pkg/domain"
)

func testFeedbackConfig() config.FeedbackConfig {
	return config.FeedbackConfig{
		MinFeedback:            5,
		NegativeRatioThreshold: 0.3,
		Window:                 30 * 24 * time.Hour,
		AutoImplementThreshold: 0.8,
	}
}

func TestEvaluateReturnsNilBelowMinFeedback(t *testing.T) {
	l, err := NewLoop(testFeedbackConfig(), t.TempDir())
	require.NoError(t, err)

	require.NoError(t, l.Record(domain.FeedbackEvent{Component: "router", Kind: domain.FeedbackUserExplicitNegative}))
	s, err := l.Evaluate("router")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestEvaluateProducesSuggestionAboveThreshold(t *testing.T) {
	l, err := NewLoop(testFeedbackConfig(), t.TempDir())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Record(domain.FeedbackEvent{Component: "gates", Kind: domain.FeedbackGateViolation}))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, l.Record(domain.FeedbackEvent{Component: "gates", Kind: domain.FeedbackUserExplicitPositive}))
	}

	s, err := l.Evaluate("gates")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, domain.ActionBehaviorChange, s.Action)
}

func TestEvaluateAutoImplementsHighConfidence(t *testing.T) {
	l, err := NewLoop(testFeedbackConfig(), t.TempDir())
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.NoError(t, l.Record(domain.FeedbackEvent{Component: "router", Kind: domain.FeedbackARIAlert}))
	}

	s, err := l.Evaluate("router")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.True(t, s.Implemented)
	assert.Equal(t, domain.ActionParameterAdjustment, s.Action)
}

func TestEvaluateIsIdempotentOnSuggestionID(t *testing.T) {
	l, err := NewLoop(testFeedbackConfig(), t.TempDir())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Record(domain.FeedbackEvent{Component: "gates", Kind: domain.FeedbackGateViolation}))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, l.Record(domain.FeedbackEvent{Component: "gates", Kind: domain.FeedbackUserExplicitPositive}))
	}

	first, err := l.Evaluate("gates")
	require.NoError(t, err)
	require.NotNil(t, first)

	// Replaying the same feedback events onto Evaluate again must produce
	// the same suggestion id, not a second distinct suggestion.
	second, err := l.Evaluate("gates")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)

	suggestions, err := l.Suggestions()
	require.NoError(t, err)
	count := 0
	for _, s := range suggestions {
		if s.TargetComponent == "gates" {
			count++
		}
	}
	assert.Equal(t, 1, count, "replay must not duplicate the suggestion record")
}

func TestEvaluateReusesSuggestionIDAcrossLoopRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := testFeedbackConfig()

	l1, err := NewLoop(cfg, dir)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		require.NoError(t, l1.Record(domain.FeedbackEvent{Component: "router", Kind: domain.FeedbackARIAlert}))
	}
	first, err := l1.Evaluate("router")
	require.NoError(t, err)
	require.NotNil(t, first)

	l2, err := NewLoop(cfg, dir)
	require.NoError(t, err)
	second, err := l2.Evaluate("router")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID, "a fresh Loop reloading persisted state must reuse the same suggestion id")
}

type recordingPublisher struct {
	channels []string
}

func (p *recordingPublisher) Publish(channel string, v any) {
	p.channels = append(p.channels, channel)
}

func TestRecordPublishesToEventBus(t *testing.T) {
	l, err := NewLoop(testFeedbackConfig(), t.TempDir())
	require.NoError(t, err)
	pub := &recordingPublisher{}
	l.SetPublisher(pub)

	require.NoError(t, l.Record(domain.FeedbackEvent{Component: "router", Kind: domain.FeedbackUserExplicitNegative}))
	require.Len(t, pub.channels, 1)
	assert.Equal(t, ChannelFeedback, pub.channels[0])
}

func TestEvaluateIgnoresEventsOutsideWindow(t *testing.T) {
	cfg := testFeedbackConfig()
	cfg.Window = time.Millisecond
	l, err := NewLoop(cfg, t.TempDir())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, l.Record(domain.FeedbackEvent{Component: "monitor", Kind: domain.FeedbackEDMAlert, Timestamp: time.Now().Add(-time.Hour)}))
	}
	s, err := l.Evaluate("monitor")
	require.NoError(t, err)
	assert.Nil(t, s, "stale events outside the rolling window should not count")
}
