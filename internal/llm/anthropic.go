package llm

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// AnthropicProvider generates answers through the Anthropic API via
// LangChainGo.
type AnthropicProvider struct {
	llm       *anthropic.LLM
	maxTokens int
}

func NewAnthropicProvider(apiKey, model string, maxTokens int) (*AnthropicProvider, error) {
	client, err := anthropic.New(
		anthropic.WithToken(apiKey),
		anthropic.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicProvider{llm: client, maxTokens: maxTokens}, nil
}

func (a *AnthropicProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, a.llm, prompt,
		llms.WithMaxTokens(a.maxTokens),
		llms.WithTemperature(0.2),
	)
}
