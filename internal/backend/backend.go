// Package backend provides the translation services the orchestrator sends
// chunks to. A backend receives plain text with stub markers and must
// return the translation; markers it damages are repaired upstream.
package backend

import (
	"context"
	"fmt"

	"translatex/internal/config"
	"translatex/internal/types"
)

// Backend translates text from src to dst.
type Backend interface {
	Translate(ctx context.Context, text, src, dst string) (string, error)
}

// Func adapts a plain function to Backend.
type Func func(ctx context.Context, text, src, dst string) (string, error)

// Translate calls f.
func (f Func) Translate(ctx context.Context, text, src, dst string) (string, error) {
	return f(ctx, text, src, dst)
}

// Name returns "func".
func (f Func) Name() string { return "func" }

// Echo returns its input unchanged. Useful for dry runs: the output
// document equals the input except for the language package.
type Echo struct{}

// Translate returns text.
func (Echo) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}

// Name returns "echo".
func (Echo) Name() string { return "echo" }

// NameOf returns the name a backend reports, or "custom".
func NameOf(b Backend) string {
	if n, ok := b.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "custom"
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg *types.Config) (Backend, error) {
	retry := RetryPolicy{MaxRetries: cfg.MaxRetries, BaseDelay: BaseRetryDelay}

	switch cfg.Backend {
	case "echo":
		return Echo{}, nil
	case "google", "":
		return NewGoogle(GoogleConfig{
			URL:     cfg.GoogleURL,
			Timeout: cfg.Timeout,
			Retry:   retry,
		}), nil
	case "openai":
		return NewOpenAI(ctx, OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.Timeout,
			Retry:   retry,
		})
	default:
		return nil, types.NewAppErrorWithDetails(types.ErrConfig,
			"unknown translation backend",
			fmt.Sprintf("%q, want one of %v", cfg.Backend, config.Backends), nil)
	}
}
