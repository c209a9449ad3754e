package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"translatex/internal/logger"
	"translatex/internal/types"
)

// BaseRetryDelay is the delay before the second attempt; later attempts
// wait proportionally longer.
const BaseRetryDelay = 2 * time.Second

// RetryPolicy bounds retries of transient backend errors.
type RetryPolicy struct {
	// MaxRetries is the total number of attempts. Values below 1 mean one.
	MaxRetries int
	BaseDelay  time.Duration
}

// do runs call until it succeeds, fails with a permanent error, or the
// attempts are used up.
func (p RetryPolicy) do(ctx context.Context, backend string, call func() (string, error)) (string, error) {
	attempts := p.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		logger.Debug("translation attempt", logger.String("backend", backend), logger.Int("attempt", attempt))
		out, err := call()
		if err == nil {
			return out, nil
		}

		lastErr = err
		logger.Warn("translation attempt failed",
			logger.String("backend", backend), logger.Int("attempt", attempt), logger.Err(err))

		if !IsRetryable(err) {
			return "", err
		}

		if attempt < attempts {
			delay := p.BaseDelay * time.Duration(attempt)
			logger.Debug("retrying after delay", logger.String("delay", delay.String()))
			select {
			case <-ctx.Done():
				return "", types.NewAppError(types.ErrNetwork, "translation cancelled", ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	logger.Error("translation failed after all retries", lastErr,
		logger.String("backend", backend), logger.Int("maxRetries", attempts))
	return "", types.NewAppErrorWithDetails(
		types.ErrBackend,
		"translation failed after multiple retries",
		fmt.Sprintf("attempted %d times", attempts),
		lastErr,
	)
}

// IsRetryable reports whether err is a network error, a rate limit or a
// server-side failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case types.ErrNetwork, types.ErrAPIRateLimit:
		return true
	case types.ErrBackend:
		return strings.HasPrefix(appErr.Details, "status 5")
	default:
		return false
	}
}
