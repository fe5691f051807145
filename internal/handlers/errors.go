package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"transitpass/internal/common"
)

// httpError maps a service error to the HTTP status for its kind. Unexpected
// errors are reported generically so internals never leak to clients.
func httpError(err error) *echo.HTTPError {
	status := common.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		return echo.NewHTTPError(status, "Internal server error")
	}
	return echo.NewHTTPError(status, err.Error())
}
