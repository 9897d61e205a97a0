package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/projectchat/internal/logging"
)

const (
	defaultRateLimit   = 2.0
	defaultBurst       = 4
	defaultBaseBackoff = 500 * time.Millisecond
)

// LimitedConfig tunes a Limited completer.
type LimitedConfig struct {
	RateLimit   float64 // requests per second; 0 uses the default
	Burst       int
	MaxRetries  int
	Timeout     time.Duration // per attempt; 0 disables
	BaseBackoff time.Duration
}

// Limited wraps a Completer with a rate limiter, a per-attempt timeout and
// retries with exponential backoff. Only failures wrapped in ErrCompletion
// are retried; cancellation of the caller's context stops immediately.
type Limited struct {
	next        Completer
	limiter     *rate.Limiter
	maxRetries  int
	timeout     time.Duration
	baseBackoff time.Duration
	logger      *logging.Logger
}

// NewLimited wraps next.
func NewLimited(next Completer, cfg LimitedConfig, logger *logging.Logger) *Limited {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = defaultBaseBackoff
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Limited{
		next:        next,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		maxRetries:  cfg.MaxRetries,
		timeout:     cfg.Timeout,
		baseBackoff: cfg.BaseBackoff,
		logger:      logger,
	}
}

func (l *Limited) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= l.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := l.baseBackoff * time.Duration(1<<(attempt-1))
			l.logger.Warn(ctx, "retrying completion",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %w", ErrCompletion, ctx.Err())
			}
		}

		if err := l.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limiter: %w", ErrCompletion, err)
		}

		text, err := l.attempt(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil || !errors.Is(err, ErrCompletion) {
			break
		}
	}

	if !errors.Is(lastErr, ErrCompletion) {
		lastErr = fmt.Errorf("%w: %w", ErrCompletion, lastErr)
	}
	return "", lastErr
}

func (l *Limited) attempt(ctx context.Context, prompt string) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	return l.next.Complete(ctx, prompt)
}

var _ Completer = (*Limited)(nil)
