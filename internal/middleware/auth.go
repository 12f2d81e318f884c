// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/ui2code/internal/models"
	"codeberg.org/oliverandrich/ui2code/internal/services/auth"
	"codeberg.org/oliverandrich/ui2code/internal/services/session"
	"github.com/labstack/echo/v4"
)

const (
	sessionKey  = "session"
	fallbackKey = "session_fallback"
)

// Authenticator resolves a bearer token to a session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Session, bool, error)
}

// RequireSession loads the session for the Authorization bearer token and
// rejects the request with 401 when there is none.
func RequireSession(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := session.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}

			sess, fallback, err := a.Authenticate(c.Request().Context(), token)
			if errors.Is(err, auth.ErrSessionNotFound) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}
			if err != nil {
				slog.ErrorContext(c.Request().Context(), "session_lookup_failed", "error", err)
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal error"})
			}

			c.Set(sessionKey, sess)
			c.Set(fallbackKey, fallback)
			return next(c)
		}
	}
}

// GetSession returns the session stored by RequireSession, or nil, and
// whether it was read from the volatile store.
func GetSession(c echo.Context) (*models.Session, bool) {
	sess, _ := c.Get(sessionKey).(*models.Session)
	fallback, _ := c.Get(fallbackKey).(bool)
	return sess, fallback
}
