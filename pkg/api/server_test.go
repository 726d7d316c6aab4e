package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corepath/partner/pkg/config"
	"github.com/corepath/partner/pkg/contextstore"
	"github.com/corepath/partner/pkg/domain"
	"github.com/corepath/partner/pkg/events"
	"github.com/corepath/partner/pkg/feedback"
	"github.com/corepath/partner/pkg/gates"
	"github.com/corepath/partner/pkg/monitor"
	"github.com/corepath/partner/pkg/orchestrator"
	"github.com/corepath/partner/pkg/privacy"
	"github.com/corepath/partner/pkg/router"
)

type fakeProvider struct{ text string }

func (f fakeProvider) Generate(ctx context.Context, prompt string, opts router.CallOptions) (string, error) {
	return f.text, nil
}
func (f fakeProvider) GenerateStream(ctx context.Context, prompt string, opts router.CallOptions, onChunk func(string)) error {
	return errors.New("not implemented")
}
func (f fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func testGateConfig() config.GateConfig {
	return config.GateConfig{AutonomyThreshold: 0, HumanityThreshold: 0.6, OversightThreshold: 0.5, AlignmentThreshold: 0.5, TribunalToleranceBand: 0.15}
}

func testMonitorConfig() config.MonitorConfig {
	return config.MonitorConfig{
		ARIWindowSize: 10, DeltaAgencyAlert: -0.1, BHIRAlert: 0.8, SkillDeltaAlert: -0.15,
		RelianceAlert: 0.9, CriticalTrendAverage: -0.2, CitationWindowChars: 100,
		AutoResolveVerified: true, RDIWeights: config.RDIWeights{Semantic: 1, Factual: 1, Logical: 1},
	}
}

func testFeedbackConfig() config.FeedbackConfig {
	return config.FeedbackConfig{MinFeedback: 1000, NegativeRatioThreshold: 0.3, Window: 30 * 24 * time.Hour, AutoImplementThreshold: 0.8}
}

func newTestServer(t *testing.T) (*Server, *orchestrator.Orchestrator) {
	t.Helper()
	dir := t.TempDir()

	privacySvc, err := privacy.NewService(dir, 1000.0, 1000, time.Hour)
	require.NoError(t, err)
	ctxStore, err := contextstore.New(dir)
	require.NoError(t, err)
	gateSys := gates.NewSystem(testGateConfig())
	fb, err := feedback.NewLoop(testFeedbackConfig(), dir)
	require.NoError(t, err)
	tribunal, err := gates.NewTribunal(testGateConfig(), dir, fb)
	require.NoError(t, err)

	registry := config.NewModelRegistry(map[string]config.ModelProviderYAML{
		"local:default": {Provider: "local", Model: "default", MaxContextTokens: 8192, LocalExecution: true},
	})
	rt := router.New(registry, config.RouterConfig{CostReference: 0.01, LatencyReferenceMS: 500, ErrorRateCeiling: 0.5, ErrorRateWindow: 10, CoolDownPeriod: time.Minute})
	resolve := func(key string) (router.Provider, bool) { return fakeProvider{text: "hi"}, true }

	ari, err := monitor.NewARI(testMonitorConfig(), dir)
	require.NoError(t, err)
	edm, err := monitor.NewEDM(testMonitorConfig(), dir, monitor.HeuristicFactChecker{})
	require.NoError(t, err)

	orch, err := orchestrator.New(dir, privacySvc, ctxStore, gateSys, tribunal, rt, resolve, ari, edm, fb)
	require.NoError(t, err)

	eventsMgr := events.NewManager()
	s := NewServer(orch, ari, edm, fb, privacySvc, eventsMgr, nil)
	return s, orch
}

func TestHealthHandler(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetRequestHandlerNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/requests/does-not-exist", nil)
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRequestHandlerFound(t *testing.T) {
	s, orch := newTestServer(t)
	goodAction := gates.Action{
		UserAgencyBefore: 0.4, UserAgencyAfter: 0.6, UserApprovalRequired: true, Reversible: true,
		AppealAvailable: true, HumanReviewPossible: true, ExplanationProvided: true, AuditTrailEnabled: true,
	}
	r := orch.Process(context.Background(), "alice", "hello", "sess-1", "general", orchestrator.Requirements{
		PrivacyAction: domain.ActionRedact,
		Action:        goodAction,
		Router:        router.Requirements{OptimizationGoal: domain.OptimizeBalanced},
		Agency:        domain.AgencySnapshot{DeltaAgency: 0.1, BHIR: 0.9, SkillBefore: 0.5, SkillAfter: 0.6},
	})
	require.True(t, r.Success)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/requests/"+r.ID, nil)
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAgencyReportRequiresUser(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/agency/report", nil)
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordConsentHandler(t *testing.T) {
	s, _ := newTestServer(t)
	body := `{"user_id":"alice","consent_level":"standard","allow_store":true}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/consent", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListDebtsAndSuggestionsHandlers(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/debts", nil)
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/v1/suggestions", nil)
	s.echo.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusOK, rec2.Code)
}
