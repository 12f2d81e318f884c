// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"time"

	"codeberg.org/oliverandrich/ui2code/internal/middleware"
	"codeberg.org/oliverandrich/ui2code/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// CredentialsRequest is the body of signup and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CodeRequest is the body of verify-signup and verify-login.
type CodeRequest struct {
	Email        string `json:"email"`
	OTP          string `json:"otp"`
	PendingToken string `json:"pendingToken"`
}

// TestEmailRequest is read from the query string on GET and from the body on POST.
type TestEmailRequest struct {
	To  string `json:"to" query:"to"`
	OTP string `json:"otp" query:"otp"`
}

// AuthResponse is the success body of every auth step.
type AuthResponse struct {
	OK           bool   `json:"ok"`
	Token        string `json:"token,omitempty"`
	PendingToken string `json:"pendingToken,omitempty"`
	PreviewURL   string `json:"previewUrl,omitempty"`
	DevOTP       string `json:"devOtp,omitempty"`
	Fallback     bool   `json:"fallback,omitempty"`
}

// SessionResponse describes the session behind a bearer token.
type SessionResponse struct {
	OK        bool      `json:"ok"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	Fallback  bool      `json:"fallback,omitempty"`
}

func newAuthResponse(res *auth.Result) AuthResponse {
	return AuthResponse{
		OK:           true,
		Token:        res.Token,
		PendingToken: res.PendingToken,
		PreviewURL:   res.PreviewURL,
		DevOTP:       res.DevOTP,
		Fallback:     res.Fallback,
	}
}

// Signup starts a registration and mails the verification code.
func (h *Handlers) Signup(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid input")
	}

	res, err := h.auth.Signup(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return authError(c, err, "No pending signup")
	}
	return c.JSON(http.StatusOK, newAuthResponse(res))
}

// VerifySignup checks the code and creates the account.
func (h *Handlers) VerifySignup(c echo.Context) error {
	var req CodeRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid input")
	}

	res, err := h.auth.VerifySignup(c.Request().Context(), req.Email, req.OTP, req.PendingToken)
	if err != nil {
		return authError(c, err, "No pending signup")
	}
	return c.JSON(http.StatusOK, newAuthResponse(res))
}

// Login checks the password and mails a login code.
func (h *Handlers) Login(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid input")
	}

	res, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return authError(c, err, "No pending login")
	}
	return c.JSON(http.StatusOK, newAuthResponse(res))
}

// VerifyLogin checks the code and issues a session token.
func (h *Handlers) VerifyLogin(c echo.Context) error {
	var req CodeRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid input")
	}

	res, err := h.auth.VerifyLogin(c.Request().Context(), req.Email, req.OTP)
	if err != nil {
		return authError(c, err, "No pending login")
	}
	return c.JSON(http.StatusOK, newAuthResponse(res))
}

// Session returns the session loaded by middleware.RequireSession.
func (h *Handlers) Session(c echo.Context) error {
	sess, fallback := middleware.GetSession(c)
	if sess == nil {
		return errorResponse(c, http.StatusUnauthorized, "Unauthorized")
	}
	return c.JSON(http.StatusOK, SessionResponse{
		OK:        true,
		Email:     sess.Email,
		CreatedAt: sess.CreatedAt,
		Fallback:  fallback,
	})
}

// TestEmail sends a code to an arbitrary address to check mail delivery.
func (h *Handlers) TestEmail(c echo.Context) error {
	if !h.enableTestEmail {
		return echo.ErrNotFound
	}

	var req TestEmailRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid input")
	}
	if req.To == "" {
		return errorResponse(c, http.StatusBadRequest, "Missing recipient")
	}

	res, err := h.auth.SendTestCode(c.Request().Context(), req.To, req.OTP)
	if err != nil {
		return authError(c, err, "")
	}
	return c.JSON(http.StatusOK, newAuthResponse(res))
}
