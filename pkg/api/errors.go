package api

import (
	"errors"
	"net/http"
	"os"

	echo "github.com/labstack/echo/v5"
)

// mapReadError maps a storage lookup failure to an HTTP error response,
// grounded on tarsy's pkg/api/errors.go mapServiceError.
func mapReadError(err error) *echo.HTTPError {
	if errors.Is(err, os.ErrNotExist) {
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
