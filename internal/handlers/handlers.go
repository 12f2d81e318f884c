// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/oliverandrich/ui2code/internal/services/auth"
	"codeberg.org/oliverandrich/ui2code/internal/services/generate"
	"github.com/labstack/echo/v4"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	auth            *auth.Service
	generate        *generate.Service
	enableTestEmail bool
}

// New creates a new Handlers instance.
func New(authSvc *auth.Service, genSvc *generate.Service, enableTestEmail bool) *Handlers {
	return &Handlers{
		auth:            authSvc,
		generate:        genSvc,
		enableTestEmail: enableTestEmail,
	}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
