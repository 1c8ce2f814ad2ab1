package handler

import (
	"errors"
	"net/http"

	appErrors "mealreminder/internal/pkg/errors"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// statusFor maps application sentinels to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, appErrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, appErrors.ErrReminderNotFound), errors.Is(err, appErrors.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, appErrors.ErrCommitInProgress),
		errors.Is(err, appErrors.ErrLoadInProgress),
		errors.Is(err, appErrors.ErrNotLoaded),
		errors.Is(err, appErrors.ErrSessionEnded):
		return http.StatusConflict
	case errors.Is(err, appErrors.ErrPermissionDenied):
		return http.StatusPreconditionFailed
	case errors.Is(err, appErrors.ErrRemoteUnavailable), errors.Is(err, appErrors.ErrDatabaseOperation):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage returns the user-facing sentinel message for err.
func publicMessage(err error) string {
	for _, sentinel := range []error{
		appErrors.ErrValidation,
		appErrors.ErrReminderNotFound,
		appErrors.ErrUserNotFound,
		appErrors.ErrCommitInProgress,
		appErrors.ErrLoadInProgress,
		appErrors.ErrNotLoaded,
		appErrors.ErrSessionEnded,
		appErrors.ErrPermissionDenied,
		appErrors.ErrRemoteUnavailable,
		appErrors.ErrDatabaseOperation,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return appErrors.ErrInternalServer.Error()
}

func respondError(c echo.Context, err error) error {
	status := statusFor(err)
	body := ErrorResponse{Error: publicMessage(err)}
	if status != http.StatusInternalServerError {
		body.Detail = err.Error()
	}
	return c.JSON(status, body)
}
