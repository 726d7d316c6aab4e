package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// listDebtsHandler handles GET /v1/debts, the full epistemic-debt ledger
// a fact-check dashboard or plug-in can render read-only.
func (s *Server) listDebtsHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, &DebtsResponse{Debts: s.edm.Debts()})
}
