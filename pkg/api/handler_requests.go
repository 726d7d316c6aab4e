package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// getRequestHandler handles GET /v1/requests/:id, returning the frozen
// Request record (spec.md §3's "frozen on terminal stage") a plug-in or
// the dashboard can read but never mutate.
func (s *Server) getRequestHandler(c *echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "request id is required")
	}

	req, err := s.orch.GetRequest(id)
	if err != nil {
		return mapReadError(err)
	}
	return c.JSON(http.StatusOK, req)
}
