package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryProvider retries transient provider failures with exponential
// backoff and jitter.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	logger *zap.Logger
}

// WithRetry wraps p. Fewer than one attempt means a single attempt.
func WithRetry(p Provider, cfg RetryConfig, logger *zap.Logger) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryProvider{inner: p, config: cfg, logger: logger}
}

func (r *RetryProvider) ModelID() string { return r.inner.ModelID() }

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var err error
	schemaRetry := false
	lastAttempt := r.config.MaxAttempts - 1
	for attempt := 0; attempt <= lastAttempt; attempt++ {
		var resp *Response
		resp, err = r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt == lastAttempt || !shouldRetry(err, &schemaRetry) {
			break
		}

		wait := r.backoff(attempt, err)
		r.logger.Warn("retrying model request",
			zap.String("purpose", PurposeFrom(ctx)),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, err
}

// shouldRetry reports whether another attempt could succeed. A reply
// that fails schema validation gets one more try per request, since the
// quiz prompt usually yields valid JSON the second time.
func shouldRetry(err error, schemaRetried *bool) bool {
	var (
		maxTok  *ErrMaxTokensExceeded
		unauth  *ErrUnauthorized
		invalid *ErrInvalidResponse
	)
	switch {
	case IsTimeout(err), errors.As(err, &maxTok), errors.As(err, &unauth):
		return false
	case errors.As(err, &invalid):
		if *schemaRetried {
			return false
		}
		*schemaRetried = true
		return true
	}
	return true
}

func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	base := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if limit := float64(r.config.MaxWait); limit > 0 && base > limit {
		base = limit
	}
	jitter := 0.8 + 0.4*rand.Float64()
	return time.Duration(base * jitter)
}
