package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// recordConsentHandler handles POST /v1/consent. Every write produces an
// appended audit entry inside the Privacy Engine itself (spec.md §4.2);
// this handler is a thin binding layer over Service.RecordConsent.
func (s *Server) recordConsentHandler(c *echo.Context) error {
	var body ConsentRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if body.UserID == "" || body.ConsentLevel == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id and consent_level are required")
	}

	record := body.toDomain()
	if err := s.privacySvc.RecordConsent(body.UserID, record); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to record consent")
	}
	return c.JSON(http.StatusOK, &ConsentResponse{Consent: s.privacySvc.Consent(body.UserID)})
}
