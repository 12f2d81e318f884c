// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"codeberg.org/oliverandrich/ui2code/internal/services/generate"
	"github.com/labstack/echo/v4"
)

// Generate turns a screenshot into HTML or React code.
func (h *Handlers) Generate(c echo.Context) error {
	var req generate.Request
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid input")
	}

	res, err := h.generate.Generate(c.Request().Context(), req)
	switch {
	case errors.Is(err, generate.ErrNoAPIKey):
		return errorResponse(c, http.StatusInternalServerError, "No API Key")
	case errors.Is(err, generate.ErrInvalidImage):
		return errorResponse(c, http.StatusBadRequest, "Invalid image")
	case err != nil:
		return err
	}
	return c.JSON(http.StatusOK, res)
}
