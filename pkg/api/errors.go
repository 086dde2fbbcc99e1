package api

import (
	"errors"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/docgen-ai/docgen/pkg/models"
)

// mapError converts service-layer errors to HTTP errors for the JSON
// endpoints. The SSE endpoints never use this: once a stream is open,
// failures travel as terminal error events instead.
func mapError(err error) error {
	var coded *models.CodedError
	if errors.As(err, &coded) {
		return echo.NewHTTPError(statusForCode(coded.Code), coded.Message)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func statusForCode(code models.ErrorCode) int {
	switch code {
	case models.ErrAuth:
		return http.StatusUnauthorized
	case models.ErrUnsupportedSource, models.ErrParseFailed, models.ErrValidationFailed:
		return http.StatusBadRequest
	case models.ErrLLMUnavailable, models.ErrLLMTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
