package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/corepath/partner/pkg/contextstore"
	"github.com/corepath/partner/pkg/domain"
	"github.com/corepath/partner/pkg/feedback"
	"github.com/corepath/partner/pkg/gates"
	"github.com/corepath/partner/pkg/monitor"
	"github.com/corepath/partner/pkg/privacy"
	"github.com/corepath/partner/pkg/router"
	"github.com/corepath/partner/pkg/storage"
)

// Orchestrator drives a Request through the eleven-stage pipeline. It owns
// no mutable state of its own beyond the request log; every stage defers
// to the subsystem that actually owns the data it touches.
type Orchestrator struct {
	privacy  *privacy.Service
	context  *contextstore.Store
	gateSys  *gates.System
	tribunal *gates.Tribunal
	rt       *router.Router
	resolve  router.Resolver
	ari      *monitor.ARI
	edm      *monitor.EDM
	feedbackLoop *feedback.Loop

	requests *storage.Store
}

// New wires every subsystem into one Orchestrator.
func New(
	dataDir string,
	privacySvc *privacy.Service,
	ctxStore *contextstore.Store,
	gateSys *gates.System,
	tribunal *gates.Tribunal,
	rt *router.Router,
	resolve router.Resolver,
	ari *monitor.ARI,
	edm *monitor.EDM,
	feedbackLoop *feedback.Loop,
) (*Orchestrator, error) {
	root, err := storage.New(dataDir)
	if err != nil {
		return nil, err
	}
	reqStore, err := root.Sub("requests")
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		privacy: privacySvc, context: ctxStore, gateSys: gateSys, tribunal: tribunal,
		rt: rt, resolve: resolve, ari: ari, edm: edm, feedbackLoop: feedbackLoop,
		requests: reqStore,
	}, nil
}

// Process runs one request through every pipeline stage in order, applying
// the edge-case policies in spec.md §4.1. The returned Request is always
// non-nil and always frozen (either Finish or Fail has been called on it)
// by the time Process returns.
func (o *Orchestrator) Process(ctx context.Context, userID, query, sessionID, taskCategory string, req Requirements) *domain.Request {
	r := domain.NewRequest(uuid.NewString(), userID, sessionID, taskCategory, query)
	defer o.persist(r)

	if ctx.Err() != nil {
		r.Fail(domain.ErrorCancelled, "context already cancelled at intake")
		return r
	}

	// pii-detection
	if !o.runPrivacyStage(r, req) {
		return r
	}

	// context-retrieval
	window := o.context.BuildWindow(userID, sessionID, nil, o.windowCap(req))
	r.SetMeta("context_window_tokens", window.TotalTokens)
	r.SetMeta("context_pruned_ids", window.PrunedIDs)
	r.AdvanceTo(domain.StageContextRetrieval)

	// gate-evaluation (+ tribunal)
	if !o.runGateStage(r, req) {
		return r
	}

	// model-selection
	selection := o.rt.Select(req.Router)
	if selection.Descriptor == nil {
		r.Fail(domain.ErrorModelFilteredEmpty, "router produced no candidate and no local fallback is registered")
		return r
	}
	if selection.Confidence <= 0.5 {
		r.Fallback = true
	}
	r.SelectedModel = selection.Descriptor.Model
	r.SelectedBackend = string(selection.Descriptor.Provider)
	r.SetMeta("selection_reason", selection.Reason)
	r.AdvanceTo(domain.StageModelSelection)

	// execution
	if ctx.Err() != nil {
		r.Fail(domain.ErrorCancelled, "cancelled before execution began")
		return r
	}
	resp, err := o.rt.Execute(ctx, o.resolve, selection, r.ProcessedInput, router.CallOptions{})
	if err != nil {
		r.Fail(domain.ErrorExecutionFailed, err.Error())
		return r
	}
	r.ModelResponse = resp.Text
	r.AdvanceTo(domain.StageExecution)

	// response-validation: currently a pass-through checkpoint; future
	// validators (length caps, safety re-check) attach here.
	r.AdvanceTo(domain.StageResponseValidation)

	// monitoring: failures here are logged as feedback, never fatal.
	o.runMonitorStage(r, req)

	// context-update
	o.runContextUpdateStage(r, sessionID, req)

	// performance-tracking: Router.Execute already recorded the attempt;
	// this stage just marks the pipeline point.
	r.AdvanceTo(domain.StagePerformanceTrack)

	// feedback
	o.runFeedbackStage(r)

	r.Finish()
	return r
}

// GetRequest loads a previously persisted Request by id, for the
// read-only collaborator API (spec.md §6 "Core→collaborator API").
func (o *Orchestrator) GetRequest(id string) (*domain.Request, error) {
	var r domain.Request
	if err := o.requests.ReadRecord(id, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (o *Orchestrator) windowCap(req Requirements) int {
	if req.WindowTokenCap > 0 {
		return req.WindowTokenCap
	}
	return 2048
}

func (o *Orchestrator) persist(r *domain.Request) {
	_ = o.requests.WriteRecord(r.ID, r)
}

// runPrivacyStage detects and applies PII policy, charges the differential
// -privacy budget, and freezes the request with privacy-budget-exceeded
// if the budget is over cap (spec.md §4.1 edge case).
func (o *Orchestrator) runPrivacyStage(r *domain.Request, req Requirements) bool {
	ok, err := o.privacy.CheckAndCharge(r.UserID, req.EpsilonCost)
	if err != nil {
		r.Fail(domain.ErrorPrivacyBudgetExceeded, err.Error())
		return false
	}
	if !ok {
		r.Fail(domain.ErrorPrivacyBudgetExceeded, "differential privacy budget exceeded")
		return false
	}

	action := req.PrivacyAction
	if action == "" {
		action = domain.ActionRedact
	}
	transformed, detections, err := o.privacy.Apply(r.Input, action)
	if err != nil {
		r.Fail(domain.ErrorPrivacyBudgetExceeded, fmt.Sprintf("privacy policy blocked request: %v", err))
		return false
	}
	r.ProcessedInput = transformed
	r.SetMeta("pii_detections", len(detections))
	r.AdvanceTo(domain.StagePIIDetection)
	return true
}

// runGateStage evaluates the Four Gates and, on any failure, consults the
// Tribunal; a denied override freezes the request at gate-evaluation.
func (o *Orchestrator) runGateStage(r *domain.Request, req Requirements) bool {
	if req.Action.TargetFile != "" && !o.gateSys.ValidatePatch(req.Action.TargetFile) {
		verdict, _ := o.tribunal.Adjudicate(r.ID, nil, true)
		r.SetMeta("tribunal_reason", verdict.Reason)
		r.Fail(domain.ErrorGateBlocked, "protected file violation")
		return false
	}

	results := o.gateSys.EvaluateAll(req.Action)
	if gates.AllPassed(results) {
		r.AdvanceTo(domain.StageGateEvaluation)
		return true
	}

	failed := gates.Failed(results)
	verdict, err := o.tribunal.Adjudicate(r.ID, failed, false)
	if err != nil {
		r.Fail(domain.ErrorGateBlocked, err.Error())
		return false
	}
	r.SetMeta("tribunal_reason", verdict.Reason)
	if !verdict.Overridden {
		r.Fail(domain.ErrorGateBlocked, "gate evaluation failed and tribunal denied override")
		return false
	}
	r.TribunalOverride = true
	r.AdvanceTo(domain.StageGateEvaluation)
	return true
}

// runMonitorStage runs ARI snapshot recording and EDM text analysis.
// Failures here are recorded as feedback but never fail the request,
// per spec.md §4.1's monitor edge-case policy.
func (o *Orchestrator) runMonitorStage(r *domain.Request, req Requirements) {
	snap := req.Agency
	snap.RequestID = r.ID
	snap.UserID = r.UserID
	snap.TaskCategory = r.TaskCategory
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}

	if alerts, err := o.ari.RecordSnapshot(snap); err != nil {
		o.recordSilentFailure(r, "monitor.ari", err)
	} else {
		for _, a := range alerts {
			_ = o.feedbackLoop.Record(domain.FeedbackEvent{
				Kind: domain.FeedbackARIAlert, Component: "monitor.ari",
				RequestID: r.ID, UserID: r.UserID, Text: a.Reason,
			})
		}
	}

	if debts, err := o.edm.AnalyzeText(r.ID, r.ModelResponse); err != nil {
		o.recordSilentFailure(r, "monitor.edm", err)
	} else {
		for _, d := range debts {
			_ = o.feedbackLoop.Record(domain.FeedbackEvent{
				Kind: domain.FeedbackEDMAlert, Component: "monitor.edm",
				RequestID: r.ID, UserID: r.UserID, Text: string(d.Kind) + ": " + d.ClaimText,
			})
		}
	}
	r.AdvanceTo(domain.StageMonitoring)
}

func (o *Orchestrator) recordSilentFailure(r *domain.Request, component string, err error) {
	_ = o.feedbackLoop.Record(domain.FeedbackEvent{
		Kind: domain.FeedbackPerformanceMetric, Component: component,
		RequestID: r.ID, UserID: r.UserID, Text: err.Error(),
	})
}

// runContextUpdateStage stores the exchange as two new conversation
// memories, one for the user's query and one for the model's response
// (spec.md §8 scenario 1: "two new conversation memories stored").
func (o *Orchestrator) runContextUpdateStage(r *domain.Request, sessionID string, req Requirements) {
	queryMem, err := o.context.StoreMemory(r.UserID, sessionID, r.Input, domain.MemoryConversation, domain.PriorityMedium, nil, "", nil)
	if err != nil {
		o.recordSilentFailure(r, "context", err)
		r.AdvanceTo(domain.StageContextUpdate)
		return
	}
	if len(req.QueryVector) > 0 {
		_ = o.context.SetVector(queryMem.ID, req.QueryVector)
	}

	if _, err := o.context.StoreMemory(r.UserID, sessionID, r.ModelResponse, domain.MemoryConversation, domain.PriorityMedium, nil, queryMem.ID, nil); err != nil {
		o.recordSilentFailure(r, "context", err)
	}
	r.AdvanceTo(domain.StageContextUpdate)
}

func (o *Orchestrator) runFeedbackStage(r *domain.Request) {
	_ = o.feedbackLoop.Record(domain.FeedbackEvent{
		Kind: domain.FeedbackPerformanceMetric, Component: "orchestrator",
		RequestID: r.ID, UserID: r.UserID,
	})
	r.AdvanceTo(domain.StageFeedback)
}
