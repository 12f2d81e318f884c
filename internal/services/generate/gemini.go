// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// APIError is an error reported by the generative language API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("generative API returned status %d", e.Status)
	}
	return e.Message
}

var (
	retryablePattern  = regexp.MustCompile(`(?i)overloaded|Please retry in`)
	retryAfterPattern = regexp.MustCompile(`Please retry in\s+([0-9.]+)s`)
)

// Retryable reports whether the API asked the caller to try again later.
func (e *APIError) Retryable() bool {
	return retryablePattern.MatchString(e.Message)
}

// RetryAfter returns the delay the API suggested, rounded up to whole
// seconds, or zero.
func (e *APIError) RetryAfter() time.Duration {
	m := retryAfterPattern.FindStringSubmatch(e.Message)
	if m == nil {
		return 0
	}
	secs, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return time.Duration(math.Ceil(secs)) * time.Second
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// text joins the text parts of the first candidate.
func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	parts := r.Candidates[0].Content.Parts
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n")
}

// client calls the generateContent endpoint.
type client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// generateContent returns the joined text of the first candidate. Errors
// reported by the API are returned as *APIError, everything else is a
// transport failure.
func (c *client) generateContent(ctx context.Context, model string, body *generateRequest) (string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimSuffix(c.baseURL, "/"), url.PathEscape(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Kept out of the URL so transport errors never carry it.
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", model, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var data generateResponse
	decodeErr := json.Unmarshal(respBody, &data)
	if resp.StatusCode >= 300 || data.Error != nil {
		apiErr := &APIError{Status: resp.StatusCode}
		if data.Error != nil {
			apiErr.Message = data.Error.Message
		}
		return "", apiErr
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decoding response: %w", decodeErr)
	}
	return data.text(), nil
}
