package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/corepath/partner/pkg/domain"
)

// Pool runs many request pipelines concurrently while keeping each one's
// own stages strictly sequential, and lets a caller cancel an in-flight
// request by session id. Grounded on tarsy's pkg/queue.WorkerPool: a
// bounded worker count, a session_id -> cancel registry guarded by its own
// mutex, and a graceful Stop that waits for in-flight work to finish.
type Pool struct {
	orch *Orchestrator

	sem chan struct{}

	mu             sync.RWMutex
	activeSessions map[string]context.CancelFunc

	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewPool builds a Pool that runs at most workerCount requests at once.
func NewPool(orch *Orchestrator, workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = 4
	}
	return &Pool{
		orch:           orch,
		sem:            make(chan struct{}, workerCount),
		activeSessions: make(map[string]context.CancelFunc),
		stopCh:         make(chan struct{}),
	}
}

// RegisterSession stores a cancel function under sessionID for later
// CancelSession calls.
func (p *Pool) RegisterSession(sessionID string, cancel context.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activeSessions[sessionID] = cancel
}

// UnregisterSession removes a session's cancel function once its request
// has finished, successfully or not.
func (p *Pool) UnregisterSession(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.activeSessions, sessionID)
}

// CancelSession cancels the in-flight request for sessionID, if any is
// currently running on this pool. Returns true if a session was found.
func (p *Pool) CancelSession(sessionID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if cancel, ok := p.activeSessions[sessionID]; ok {
		cancel()
		return true
	}
	return false
}

// getActiveSessionIDs is a diagnostic helper for Stop's shutdown log.
func (p *Pool) getActiveSessionIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.activeSessions))
	for id := range p.activeSessions {
		ids = append(ids, id)
	}
	return ids
}

// Submit blocks until a worker slot is free, then runs one request
// pipeline and returns its result synchronously. Cancelling ctx (directly,
// or via CancelSession/the stop channel) aborts the in-flight stage the
// request is currently in; Process itself decides whether a cancelled
// context freezes the request at "cancelled" before execution or mid-call.
func (p *Pool) Submit(ctx context.Context, userID, query, sessionID, taskCategory string, req Requirements) *domain.Request {
	select {
	case p.sem <- struct{}{}:
	case <-p.stopCh:
		r := domain.NewRequest("", userID, sessionID, taskCategory, query)
		r.Fail(domain.ErrorCancelled, "pool is shutting down")
		return r
	}
	defer func() { <-p.sem }()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.RegisterSession(sessionID, cancel)
	defer p.UnregisterSession(sessionID)

	p.wg.Add(1)
	defer p.wg.Done()

	result := p.orch.Process(runCtx, userID, query, sessionID, taskCategory, req)
	if result.ErrorKind != domain.ErrorNone {
		slog.Warn("request pipeline ended in error", "request_id", result.ID, "stage", result.StageCompleted, "error_kind", result.ErrorKind)
	}
	return result
}

// Stop signals shutdown and waits for every in-flight Submit call to
// return. It does not itself cancel running requests — callers that want
// a hard stop should cancel the contexts they passed to Submit first.
func (p *Pool) Stop() {
	active := p.getActiveSessionIDs()
	if len(active) > 0 {
		slog.Info("waiting for active requests to complete", "count", len(active), "session_ids", active)
	}
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
}
