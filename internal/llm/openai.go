package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/fyrsmithlabs/projectchat/internal/config"
)

// OpenAI calls an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	model       llms.Model
	temperature float64
	maxTokens   int
}

// NewOpenAI creates an OpenAI provider. BaseURL may point at any compatible
// server.
func NewOpenAI(cfg config.LLMConfig) (*OpenAI, error) {
	if !cfg.APIKey.IsSet() {
		return nil, fmt.Errorf("openai API key required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai model required")
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey.Value()),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout.Duration()}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}
	return &OpenAI{
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Complete returns the first choice's text. A response with no choices is an
// empty reply, not an error.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	var opts []llms.CallOption
	if o.temperature > 0 {
		opts = append(opts, llms.WithTemperature(o.temperature))
	}
	if o.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(o.maxTokens))
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, o.model, prompt, opts...)
	if isEmptyResponse(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: openai: %w", ErrCompletion, err)
	}
	return text, nil
}

// The chat client returns its own unexported "empty response" sentinel when
// the server sends no choices, so it is matched by message.
func isEmptyResponse(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, openai.ErrEmptyResponse) {
		return true
	}
	msg := err.Error()
	return msg == "empty response" || msg == "empty response from model"
}

var _ Completer = (*OpenAI)(nil)
