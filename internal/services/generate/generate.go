// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package generate turns UI screenshots into HTML/Tailwind or React code
// through the generative language API.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"codeberg.org/oliverandrich/ui2code/internal/config"
	"codeberg.org/oliverandrich/ui2code/internal/metrics"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/time/rate"
)

var (
	ErrNoAPIKey     = errors.New("no API key configured")
	ErrInvalidImage = errors.New("image must be a data URL or base64 string")
)

// Output modes.
const (
	ModeHTML  = "html"
	ModeReact = "react"
)

const (
	defaultRetryWait = 2 * time.Second
	maxRetryWait     = 3 * time.Second
	defaultMimeType  = "image/jpeg"
)

// Request is one screenshot to convert.
type Request struct {
	Image string `json:"image"`
	Mode  string `json:"mode"`
}

// Result is always returned when an API key is configured. Validated is
// false when Code is a mock or placeholder.
type Result struct {
	Code       string `json:"code"`
	Validated  bool   `json:"validated"`
	Error      string `json:"error,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// Option configures a Service.
type Option func(*Service)

// WithHTTPClient replaces the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.client.http = c }
}

// WithMetrics records request outcomes.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Service) { s.metrics = m }
}

// WithMaxRetryWait caps the pause before retrying an overloaded model.
func WithMaxRetryWait(d time.Duration) Option {
	return func(s *Service) { s.maxRetryWait = d }
}

type Service struct {
	client        *client
	primaryModel  string
	fallbackModel string
	limiter       *rate.Limiter
	policy        *bluemonday.Policy
	maxRetryWait  time.Duration
	metrics       *metrics.Collector
}

func NewService(cfg *config.GenerateConfig, opts ...Option) *Service {
	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Limit(float64(cfg.RatePerMinute) / 60)
	}

	s := &Service{
		client: &client{
			http:    &http.Client{Timeout: cfg.RequestTimeout},
			baseURL: cfg.BaseURL,
			apiKey:  cfg.APIKey,
		},
		primaryModel:  cfg.PrimaryModel,
		fallbackModel: cfg.FallbackModel,
		limiter:       rate.NewLimiter(limit, 1),
		policy:        htmlPolicy(),
		maxRetryWait:  maxRetryWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether an API key is configured.
func (s *Service) Enabled() bool {
	return s.client.apiKey != ""
}

// Generate converts req.Image. Only a missing API key or an unusable image is
// returned as an error; API and network failures produce a placeholder Result.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	if !s.Enabled() {
		return nil, ErrNoAPIKey
	}
	mode := NormalizeMode(req.Mode)
	mimeType, data, err := parseImage(req.Image)
	if err != nil {
		return nil, err
	}
	body := &generateRequest{Contents: []content{{Parts: []part{
		{Text: prompt(mode)},
		{InlineData: &inlineData{MimeType: mimeType, Data: data}},
	}}}}

	text, err := s.call(ctx, s.primaryModel, body)

	var firstErr *APIError
	if errors.As(err, &firstErr) && firstErr.Retryable() {
		slog.WarnContext(ctx, "generate_model_overloaded", "model", s.primaryModel, "error", firstErr.Message)
		if err = s.pause(ctx, firstErr.RetryAfter()); err == nil {
			text, err = s.call(ctx, s.primaryModel, body)
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && s.fallbackModel != "" {
			text, err = s.call(ctx, s.fallbackModel, body)
		}
	}

	var apiErr *APIError
	switch {
	case err == nil:
		s.metrics.RecordGenerate("ok")
		return &Result{Code: s.clean(text, mode), Validated: true}, nil
	case errors.As(err, &apiErr):
		if firstErr == nil {
			firstErr = apiErr
		}
		slog.WarnContext(ctx, "generate_failed", "status", firstErr.Status, "error", firstErr.Message)
		s.metrics.RecordGenerate("mock")
		res := &Result{Code: mockCode(mode), Error: firstErr.Message}
		if res.Error == "" {
			res.Error = "AI error"
		}
		if d := firstErr.RetryAfter(); d > 0 {
			res.RetryAfter = int(math.Ceil(d.Seconds()))
		}
		return res, nil
	default:
		slog.ErrorContext(ctx, "generate_network_error", "error", err)
		s.metrics.RecordGenerate("network_error")
		return &Result{Code: emptyHTML, Error: "Network error"}, nil
	}
}

func (s *Service) call(ctx context.Context, model string, body *generateRequest) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}
	start := time.Now()
	text, err := s.client.generateContent(ctx, model, body)
	slog.DebugContext(ctx, "generate_call", "model", model, "duration", time.Since(start), "ok", err == nil)
	return text, err
}

// pause waits before a retry. The API's hint is honored up to maxRetryWait.
func (s *Service) pause(ctx context.Context, hint time.Duration) error {
	wait := hint
	if wait <= 0 {
		wait = defaultRetryWait
	}
	wait = min(wait, s.maxRetryWait)
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Service) clean(text, mode string) string {
	code := stripFences(text)
	if code == "" {
		return emptyHTML
	}
	if mode == ModeReact {
		code = sanitizeReact(code)
	} else {
		code = s.policy.Sanitize(code)
	}
	if strings.TrimSpace(code) == "" {
		return emptyHTML
	}
	return code
}

// NormalizeMode maps anything but "react" to ModeHTML.
func NormalizeMode(mode string) string {
	if strings.EqualFold(strings.TrimSpace(mode), ModeReact) {
		return ModeReact
	}
	return ModeHTML
}

var dataURLPattern = regexp.MustCompile(`^data:(image/[^;]+);base64,`)

// parseImage splits a data URL into mime type and base64 payload. A bare
// base64 string is assumed to be JPEG.
func parseImage(image string) (mimeType, data string, err error) {
	image = strings.TrimSpace(image)
	mimeType = defaultMimeType
	if m := dataURLPattern.FindStringSubmatch(image); m != nil {
		mimeType = m[1]
		image = image[len(m[0]):]
	}
	if image == "" {
		return "", "", ErrInvalidImage
	}
	return mimeType, image, nil
}

func prompt(mode string) string {
	target := "HTML/Tailwind code"
	if mode == ModeReact {
		target = "React component code"
	}
	return `You are an expert Frontend Developer. Analyze this UI screenshot.
Generate ` + target + ` to replicate it exactly.

RULES:
- Use Tailwind CSS for styling.
- Use <img src="https://placehold.co/600x400" /> for images.
- Return ONLY the raw code string. Do NOT use markdown backticks.`
}
