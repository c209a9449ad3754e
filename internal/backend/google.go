package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"translatex/internal/config"
	"translatex/internal/logger"
	"translatex/internal/types"
)

// GoogleConfig configures the Google backend.
type GoogleConfig struct {
	// URL of the translate_a/t endpoint. Empty means the public one.
	URL     string
	Timeout time.Duration
	Retry   RetryPolicy
	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// Google calls the endpoint used by the Google dictionary browser
// extension. It needs no API key but is rate limited.
type Google struct {
	url    string
	client *http.Client
	retry  RetryPolicy
}

// NewGoogle returns a Google backend.
func NewGoogle(cfg GoogleConfig) *Google {
	if cfg.URL == "" {
		cfg.URL = config.DefaultGoogleURL
	}
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = config.DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Google{url: cfg.URL, client: client, retry: cfg.Retry}
}

// Name returns "google".
func (g *Google) Name() string { return "google" }

// Translate sends text to the endpoint, retrying transient failures.
func (g *Google) Translate(ctx context.Context, text, src, dst string) (string, error) {
	return g.retry.do(ctx, g.Name(), func() (string, error) {
		return g.doTranslate(ctx, text, src, dst)
	})
}

func (g *Google) doTranslate(ctx context.Context, text, src, dst string) (string, error) {
	params := url.Values{}
	params.Set("client", "dict-chrome-ex")
	params.Set("sl", src)
	params.Set("tl", dst)

	form := url.Values{}
	form.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url+"?"+params.Encode(),
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	logger.Debug("calling google translate", logger.Int("chars", len(text)),
		logger.String("sl", src), logger.String("tl", dst))
	resp, err := g.client.Do(req)
	if err != nil {
		return "", types.NewAppError(types.ErrNetwork, "google translate request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", types.NewAppError(types.ErrNetwork, "failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", handleHTTPError(resp.StatusCode, body)
	}
	return parseGoogleReply(body)
}

// parseGoogleReply extracts the translation from a JSON array reply whose
// first element is either the text or a list of text pieces.
func parseGoogleReply(body []byte) (string, error) {
	var data []json.RawMessage
	if err := json.Unmarshal(body, &data); err != nil || len(data) == 0 {
		return "", types.NewAppErrorWithDetails(types.ErrBackend,
			"malformed google translate response", truncate(string(body), 200), err)
	}

	var text string
	if err := json.Unmarshal(data[0], &text); err == nil {
		return text, nil
	}
	var pieces []string
	if err := json.Unmarshal(data[0], &pieces); err != nil {
		return "", types.NewAppErrorWithDetails(types.ErrBackend,
			"malformed google translate response", truncate(string(data[0]), 200), err)
	}
	return strings.Join(pieces, ""), nil
}

// handleHTTPError maps a non-200 status to an AppError. Server errors carry
// "status 5xx" in the details so they are retried.
func handleHTTPError(statusCode int, body []byte) error {
	details := fmt.Sprintf("status %d: %s", statusCode, truncate(strings.TrimSpace(string(body)), 200))
	switch {
	case statusCode == http.StatusTooManyRequests:
		return types.NewAppErrorWithDetails(types.ErrAPIRateLimit, "translation rate limit exceeded", details, nil)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return types.NewAppErrorWithDetails(types.ErrBackend, "translation request rejected", details, nil)
	case statusCode >= 500:
		return types.NewAppErrorWithDetails(types.ErrBackend, "translation server error", details, nil)
	default:
		return types.NewAppErrorWithDetails(types.ErrBackend, "translation request failed", details, nil)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
