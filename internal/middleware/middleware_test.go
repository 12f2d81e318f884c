// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/oliverandrich/ui2code/internal/i18n"
	"codeberg.org/oliverandrich/ui2code/internal/metrics"
	"codeberg.org/oliverandrich/ui2code/internal/middleware"
	"codeberg.org/oliverandrich/ui2code/internal/models"
	"codeberg.org/oliverandrich/ui2code/internal/services/auth"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authenticatorFunc func(ctx context.Context, token string) (*models.Session, bool, error)

func (f authenticatorFunc) Authenticate(ctx context.Context, token string) (*models.Session, bool, error) {
	return f(ctx, token)
}

func sessionEcho(a middleware.Authenticator) *echo.Echo {
	e := echo.New()
	e.GET("/session", func(c echo.Context) error {
		sess, fallback := middleware.GetSession(c)
		return c.JSON(http.StatusOK, map[string]any{"email": sess.Email, "fallback": fallback})
	}, middleware.RequireSession(a))
	return e
}

func TestRequireSession(t *testing.T) {
	known := &models.Session{Token: "tok", Email: "a@example.com", CreatedAt: time.Now()}
	a := authenticatorFunc(func(_ context.Context, token string) (*models.Session, bool, error) {
		switch token {
		case "tok":
			return known, true, nil
		case "broken":
			return nil, false, errors.New("boom")
		default:
			return nil, false, auth.ErrSessionNotFound
		}
	})
	e := sessionEcho(a)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid token", "Bearer tok", http.StatusOK, `{"email":"a@example.com","fallback":true}`},
		{"missing header", "", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"wrong scheme", "Basic tok", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"lookup failure", "Bearer broken", http.StatusInternalServerError, `{"error":"Internal error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/session", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestGetSession_Empty(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	sess, fallback := middleware.GetSession(c)

	assert.Nil(t, sess)
	assert.False(t, fallback)
}

func TestLocale(t *testing.T) {
	require.NoError(t, i18n.Init())

	e := echo.New()
	e.Use(middleware.Locale())
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, i18n.GetLocale(c.Request().Context()))
	})

	tests := []struct {
		header   string
		expected string
	}{
		{"de-DE,de;q=0.9", "de"},
		{"en-US", "en"},
		{"", "en"},
		{"fr-FR", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept-Language", tt.header)
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.expected, rec.Body.String())
		})
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := echo.New()
	e.Use(middleware.Metrics(metrics.NewCollector(reg)))
	e.GET("/ok", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/teapot", func(_ echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot)
	})

	for _, path := range []string{"/ok", "/ok", "/teapot"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	count, err := testutil.GatherAndCount(reg, "ui2code_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per route and status")
}
