package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// agencyReportHandler handles GET /v1/agency/report?user=<id>, the ARI
// trend summary a plug-in polls to adapt its own behavior.
func (s *Server) agencyReportHandler(c *echo.Context) error {
	userID := c.QueryParam("user")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user query parameter is required")
	}

	report := s.ari.Generate(userID)
	return c.JSON(http.StatusOK, &AgencyReportResponse{
		UserID:          report.UserID,
		SnapshotCount:   report.SnapshotCount,
		AvgDeltaAgency:  report.AvgDeltaAgency,
		AvgBHIR:         report.AvgBHIR,
		AvgTaskEfficacy: report.AvgTaskEfficacy,
		AvgSkillDelta:   report.AvgSkillDelta,
		Trend:           report.Trend,
	})
}
