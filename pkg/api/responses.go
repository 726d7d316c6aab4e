package api

import "github.com/corepath/partner/pkg/domain"

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// AgencyReportResponse is the body of GET /v1/agency/report.
type AgencyReportResponse struct {
	UserID          string         `json:"user_id"`
	SnapshotCount   int            `json:"snapshot_count"`
	AvgDeltaAgency  float64        `json:"avg_delta_agency"`
	AvgBHIR         float64        `json:"avg_bhir"`
	AvgTaskEfficacy float64        `json:"avg_task_efficacy"`
	AvgSkillDelta   float64        `json:"avg_skill_delta"`
	Trend           domain.ARITrend `json:"trend"`
}

// DebtsResponse is the body of GET /v1/debts.
type DebtsResponse struct {
	Debts []domain.EpistemicDebt `json:"debts"`
}

// SuggestionsResponse is the body of GET /v1/suggestions.
type SuggestionsResponse struct {
	Suggestions []domain.ImprovementSuggestion `json:"suggestions"`
}

// ConsentResponse is the body returned after POST /v1/consent.
type ConsentResponse struct {
	Consent domain.ConsentRecord `json:"consent"`
}
