package assistant

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// =============================================================================
// GENERATOR TRANSPORT
// =============================================================================

// ErrNoCredential is returned when a live generator is requested without an API key.
var ErrNoCredential = errors.New("assistant: no API credential configured")

// ProviderGemini is the provider label recorded with token usage.
const ProviderGemini = "gemini"

// Generation is the text produced for one prompt plus its token accounting.
type Generation struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Generator turns a single text prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Generation, error)
}

// GenAIGenerator calls the Gemini API through the official genai SDK.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

// NewGenAIGenerator creates a generator for model. An empty apiKey yields ErrNoCredential.
func NewGenAIGenerator(ctx context.Context, apiKey, model string) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, ErrNoCredential
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIGenerator{client: client, model: model}, nil
}

// Model returns the model name requests are sent to.
func (g *GenAIGenerator) Model() string {
	return g.model
}

// Generate sends prompt as a single user turn.
func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) (Generation, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return Generation{}, fmt.Errorf("GenAI generate failed: %w", err)
	}

	out := Generation{Text: resp.Text(), Model: g.model}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}
