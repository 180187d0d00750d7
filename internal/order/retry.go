package order

import (
	"context"
	"fmt"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

const maxAttempts = 2

// RetryOnce runs fn and, when it fails for a reason other than a domain
// rule, runs it one more time. An infrastructure error that survives the
// second attempt is returned wrapped in ErrPersistence.
func RetryOnce(ctx context.Context, method string, fn func() error) error {
	return retryOnce(ctx, method, fn, nil)
}

func retryOnce(ctx context.Context, method string, fn func() error, onRetry func()) error {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if IsDomainError(err) {
			return err
		}

		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < maxAttempts {
			if onRetry != nil {
				onRetry()
			}
			logger.FromCtx(ctx).Warn("attempt failed, retrying",
				zap.String("layer", "service"),
				zap.String("method", method),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
	}

	return fmt.Errorf("%w: %w", ErrPersistence, lastErr)
}
