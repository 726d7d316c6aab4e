package domain

import "time"

// AgencySnapshot is one append-only measurement produced by the Monitor
// Suite at the end of a request.
type AgencySnapshot struct {
	Timestamp        time.Time      `json:"timestamp"`
	RequestID        string         `json:"request_id"`
	UserID           string         `json:"user_id"`
	TaskCategory     string         `json:"task_category"`
	DeltaAgency      float64        `json:"delta_agency"`
	BHIR             float64        `json:"bhir"`
	TaskEfficacy     float64        `json:"task_efficacy"`
	SkillBefore      float64        `json:"skill_before"`
	SkillAfter       float64        `json:"skill_after"`
	AIReliance       float64        `json:"ai_reliance"`
	AutonomyRetained float64        `json:"autonomy_retention"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// SkillDelta is the convenience derived quantity alert thresholds key off.
func (s AgencySnapshot) SkillDelta() float64 { return s.SkillAfter - s.SkillBefore }

// EpistemicDebt is a detected unverified or unverifiable claim. It is never
// deleted; only mutated by fact-check resolution.
type EpistemicDebt struct {
	ID               string          `json:"id"`
	RequestID        string          `json:"request_id"`
	ClaimText        string          `json:"claim_text"`
	Context          string          `json:"context"`
	Severity         DebtSeverity    `json:"severity"`
	Kind             DebtKind        `json:"kind"`
	FactCheckStatus  FactCheckStatus `json:"fact_check_status"`
	Confidence       float64         `json:"confidence"`
	EvidenceSource   string          `json:"evidence_source,omitempty"`
	Resolved         bool            `json:"resolved"`
	ResolutionMethod string          `json:"resolution_method,omitempty"`
	ResolvedAt       time.Time       `json:"resolved_at,omitempty"`
	DetectedAt       time.Time       `json:"detected_at"`
}

// FeedbackEvent is one observation fed into the self-improvement loop.
type FeedbackEvent struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Kind      FeedbackKind   `json:"kind"`
	Component string         `json:"component"`
	RequestID string         `json:"request_id,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Rating    *float64       `json:"rating,omitempty"`
	Text      string         `json:"text,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ImprovementSuggestion is a proposed remediation emitted by the
// self-improvement loop when a component crosses its negative-feedback
// threshold.
type ImprovementSuggestion struct {
	ID               string           `json:"id"`
	Action           SuggestionAction `json:"action"`
	TargetComponent  string           `json:"target_component"`
	Description      string           `json:"description"`
	Rationale        string           `json:"rationale"`
	Confidence       float64          `json:"confidence"`
	SupportingEvents []string         `json:"supporting_feedback_ids"`
	Approved         bool             `json:"approved"`
	Implemented      bool             `json:"implemented"`
	CreatedAt        time.Time        `json:"created_at"`
}

// ModelDescriptor is the immutable capability/cost registry entry for one
// (provider, model) pair.
type ModelDescriptor struct {
	Provider           ModelProvider `json:"provider"`
	Model              string        `json:"model"`
	MaxContextTokens   int           `json:"max_context_tokens"`
	SupportsStreaming  bool          `json:"supports_streaming"`
	SupportsFunctions  bool          `json:"supports_functions"`
	SupportsVision     bool          `json:"supports_vision"`
	QualityReasoning   float64       `json:"quality_reasoning"`
	QualityBreadth     float64       `json:"quality_breadth"`
	QualityCode        float64       `json:"quality_code"`
	QualityCreativity  float64       `json:"quality_creativity"`
	InputCostPer1K     float64       `json:"input_cost_per_1k"`
	OutputCostPer1K    float64       `json:"output_cost_per_1k"`
	TypicalLatencyMS   float64       `json:"typical_latency_ms"`
	Available          bool          `json:"available"`
	RetentionDays      int           `json:"retention_days"`
	TrainsOnData       bool          `json:"trains_on_data"`
	LocalExecution     bool          `json:"local_execution"`
}

// Key is the "provider:model" identity used as a map key throughout the
// router and persisted performance snapshots (spec.md §6).
func (d ModelDescriptor) Key() string {
	return string(d.Provider) + ":" + d.Model
}

// IsFree reports whether both cost axes are zero.
func (d ModelDescriptor) IsFree() bool {
	return d.InputCostPer1K == 0 && d.OutputCostPer1K == 0
}

// EstimatedCost projects the dollar cost of a call with the given token
// counts.
func (d ModelDescriptor) EstimatedCost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)/1000.0)*d.InputCostPer1K + (float64(outputTokens)/1000.0)*d.OutputCostPer1K
}

// ModelPerformance is the rolling set of counters the Router mutates after
// every call attempt.
type ModelPerformance struct {
	Key              string    `json:"key"`
	TotalRequests    int64     `json:"total_requests"`
	Successes        int64     `json:"successes"`
	Failures         int64     `json:"failures"`
	AvgLatencyMS     float64   `json:"avg_latency_ms"`
	AvgCost          float64   `json:"avg_cost"`
	AvgQuality       float64   `json:"avg_quality_feedback"`
	ErrorRate        float64   `json:"error_rate"`
	LastError        string    `json:"last_error,omitempty"`
	LastUpdated      time.Time `json:"last_updated"`
}

// PrivacyBudget tracks one user's differential-privacy spend.
type PrivacyBudget struct {
	UserID       string    `json:"user_id"`
	EpsilonSpent float64   `json:"epsilon_spent"`
	EpsilonCap   float64   `json:"epsilon_cap"`
	QueryCount   int       `json:"query_count"`
	QueryCap     int       `json:"query_cap"`
	LastReset    time.Time `json:"last_reset"`
	Exceeded     bool      `json:"exceeded"`
}

// ConsentRecord is the per-user consent state; writes outside the engine
// must go through the Privacy Engine so an audit entry is always appended.
type ConsentRecord struct {
	UserID          string       `json:"user_id"`
	Level           ConsentLevel `json:"consent_level"`
	AllowStore      bool         `json:"allow_store"`
	AllowAnalytics  bool         `json:"allow_analytics"`
	AllowPersonalize bool        `json:"allow_personalize"`
	AllowShare      bool         `json:"allow_share"`
	GrantedAt       time.Time    `json:"granted_at"`
	ExpiresAt       *time.Time   `json:"expires_at,omitempty"`
	Version         string       `json:"version"`
}

// Expired reports whether the consent record's expiry has passed.
func (c ConsentRecord) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// AuditEntry is an append-only record of a write to consent or a tribunal
// verdict, satisfying the audit-trail invariant in spec.md §4.2/§4.4.
type AuditEntry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	Before    map[string]any `json:"before,omitempty"`
	After     map[string]any `json:"after,omitempty"`
}
