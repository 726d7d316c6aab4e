package api

import "github.com/corepath/partner/pkg/domain"

// ConsentRequest is the HTTP request body for POST /v1/consent.
type ConsentRequest struct {
	UserID           string `json:"user_id" validate:"required"`
	ConsentLevel     string `json:"consent_level" validate:"required"`
	AllowStore       bool   `json:"allow_store"`
	AllowAnalytics   bool   `json:"allow_analytics"`
	AllowPersonalize bool   `json:"allow_personalize"`
	AllowShare       bool   `json:"allow_share"`
	Version          string `json:"version,omitempty"`
}

func (r ConsentRequest) toDomain() domain.ConsentRecord {
	return domain.ConsentRecord{
		UserID:           r.UserID,
		Level:            domain.ConsentLevel(r.ConsentLevel),
		AllowStore:       r.AllowStore,
		AllowAnalytics:   r.AllowAnalytics,
		AllowPersonalize: r.AllowPersonalize,
		AllowShare:       r.AllowShare,
		Version:          r.Version,
	}
}
