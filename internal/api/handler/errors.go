package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/usermgmt/user-service/internal/core/domain"
)

// Classify maps err to an HTTP status and a message that is safe to show a
// client. known is false for anything unexpected; those must be logged by the
// caller and never echoed.
func Classify(err error) (code int, msg string, known bool) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message), true
	}

	switch {
	case errors.Is(err, domain.ErrDuplicateUsername):
		return http.StatusBadRequest, "Username already exists", true
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusBadRequest, "Email already exists", true
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, "Invalid role", true
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error(), true
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found", true
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgBadCredentials, true
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid token", true
	}

	return http.StatusInternalServerError, "internal server error", false
}
