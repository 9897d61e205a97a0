// Package llm provides the external completion service used to answer chat turns.
//
// Every provider satisfies Completer: a single-shot, synchronous call that
// turns a prompt into text. An empty reply is valid and left for callers to
// handle. Transport failures are wrapped in ErrCompletion.
package llm

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectchat/internal/config"
	"github.com/fyrsmithlabs/projectchat/internal/logging"
)

// ErrCompletion wraps every failure to obtain a completion.
var ErrCompletion = errors.New("completion failed")

// Completer produces a completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// New builds the completer selected by cfg.Provider. Network providers are
// wrapped with rate limiting and retries.
func New(cfg config.LLMConfig, logger *logging.Logger) (Completer, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	var (
		base Completer
		err  error
	)
	switch cfg.Provider {
	case config.ProviderStatic:
		return NewStatic(cfg.StaticReply), nil
	case config.ProviderOpenAI:
		base, err = NewOpenAI(cfg)
	case config.ProviderGemini:
		base, err = NewGemini(context.Background(), cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewLimited(base, LimitedConfig{
		RateLimit:  cfg.RateLimit,
		Burst:      cfg.Burst,
		MaxRetries: cfg.MaxRetries,
		Timeout:    cfg.Timeout.Duration(),
	}, logger.Named("llm").With(zap.String("provider", cfg.Provider))), nil
}
