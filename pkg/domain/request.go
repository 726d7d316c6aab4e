package domain

import (
	"time"
)

// Request is the frozen record of one pipeline run. It is created at intake
// and never mutated after its terminal stage completes; StageCompleted only
// ever advances forward.
type Request struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	SessionID       string            `json:"session_id"`
	TaskCategory    string            `json:"task_category"`
	Input           string            `json:"input"`
	ProcessedInput  string            `json:"processed_input"`
	SelectedModel   string            `json:"selected_model,omitempty"`
	SelectedBackend string            `json:"selected_backend,omitempty"`
	ModelResponse   string            `json:"model_response,omitempty"`
	Fallback        bool              `json:"fallback"`
	TribunalOverride bool             `json:"tribunal_override"`
	Success         bool              `json:"success"`
	StageCompleted  StageKind         `json:"stage_completed"`
	ErrorKind       ErrorKind         `json:"error_kind,omitempty"`
	ErrorDetail     string            `json:"error_detail,omitempty"`
	Metadata        map[string]any    `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	CompletedAt     time.Time         `json:"completed_at,omitempty"`
}

// NewRequest starts a fresh, unfrozen Request at the intake stage.
func NewRequest(id, userID, sessionID, taskCategory, input string) *Request {
	return &Request{
		ID:             id,
		UserID:         userID,
		SessionID:      sessionID,
		TaskCategory:   taskCategory,
		Input:          input,
		ProcessedInput: input,
		StageCompleted: StageIntake,
		Metadata:       make(map[string]any),
		CreatedAt:      time.Now(),
	}
}

// AdvanceTo moves StageCompleted forward. It is the caller's responsibility
// (the orchestrator's stage loop) to only call this with the next stage in
// sequence; AdvanceTo itself only guards against going backwards, preserving
// the "stage_completed only advances monotonically" invariant even if a
// caller passes stages out of order.
func (r *Request) AdvanceTo(stage StageKind) {
	cur := stageIndex(r.StageCompleted)
	next := stageIndex(stage)
	if next > cur {
		r.StageCompleted = stage
	}
}

func stageIndex(s StageKind) int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Fail freezes the request at its current stage with a terminal error. It
// never overwrites an error kind already set (the first failure wins).
func (r *Request) Fail(kind ErrorKind, detail string) {
	if r.ErrorKind != ErrorNone {
		return
	}
	r.ErrorKind = kind
	r.ErrorDetail = detail
	r.Success = false
	r.CompletedAt = time.Now()
}

// Finish marks the request as successfully terminated.
func (r *Request) Finish() {
	r.Success = true
	r.CompletedAt = time.Now()
}

// SetMeta records a piece of stage metadata on the request.
func (r *Request) SetMeta(key string, value any) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
}
