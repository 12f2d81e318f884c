// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/ui2code/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// errorResponse writes {"error": msg} with the given status.
func errorResponse(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// authError maps an auth service error to its HTTP status. pendingMsg is the
// flow specific text for a missing pending record.
func authError(c echo.Context, err error, pendingMsg string) error {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		return errorResponse(c, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, auth.ErrUserExists):
		return errorResponse(c, http.StatusConflict, "Email already registered")
	case errors.Is(err, auth.ErrUserNotFound):
		return errorResponse(c, http.StatusNotFound, "Account not found")
	case errors.Is(err, auth.ErrPendingNotFound):
		return errorResponse(c, http.StatusNotFound, pendingMsg)
	case errors.Is(err, auth.ErrCodeExpired):
		return errorResponse(c, http.StatusGone, "Code expired")
	case errors.Is(err, auth.ErrInvalidCode):
		return errorResponse(c, http.StatusUnauthorized, "Incorrect code")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return errorResponse(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrDelivery):
		slog.WarnContext(c.Request().Context(), "otp_delivery_failed", "error", err)
		return errorResponse(c, http.StatusBadGateway, "Failed to send email")
	default:
		slog.ErrorContext(c.Request().Context(), "auth_request_failed", "path", c.Path(), "error", err)
		return errorResponse(c, http.StatusInternalServerError, "Internal error")
	}
}
