package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// listSuggestionsHandler handles GET /v1/suggestions, the self-
// improvement loop's output queue.
func (s *Server) listSuggestionsHandler(c *echo.Context) error {
	suggestions, err := s.feedbackLoop.Suggestions()
	if err != nil {
		return mapReadError(err)
	}
	return c.JSON(http.StatusOK, &SuggestionsResponse{Suggestions: suggestions})
}
