package llm

import (
	"context"
	"fmt"
	"math"
	"strings"

	"google.golang.org/genai"

	"github.com/fyrsmithlabs/projectchat/internal/config"
)

type geminiModels interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Gemini calls the Google Gemini API.
type Gemini struct {
	models      geminiModels
	model       string
	temperature float64
	maxTokens   int
}

// NewGemini creates a Gemini provider.
func NewGemini(ctx context.Context, cfg config.LLMConfig) (*Gemini, error) {
	if !cfg.APIKey.IsSet() {
		return nil, fmt.Errorf("gemini API key required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey.Value(),
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	if client == nil || client.Models == nil {
		return nil, fmt.Errorf("creating gemini client: models client is nil")
	}
	return newGemini(client.Models, cfg), nil
}

func newGemini(models geminiModels, cfg config.LLMConfig) *Gemini {
	return &Gemini{
		models:      models,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{{
		Role:  string(genai.RoleUser),
		Parts: []*genai.Part{{Text: prompt}},
	}}

	genConfig := &genai.GenerateContentConfig{}
	if g.temperature > 0 {
		temperature := float32(g.temperature)
		genConfig.Temperature = &temperature
	}
	if g.maxTokens > 0 && g.maxTokens <= math.MaxInt32 {
		genConfig.MaxOutputTokens = int32(g.maxTokens)
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, genConfig)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %w", ErrCompletion, err)
	}
	return responseText(resp), nil
}

// responseText joins the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range c.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

var _ Completer = (*Gemini)(nil)
