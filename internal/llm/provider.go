// Package llm wraps the generative answerer. The orchestrator only ever
// sees Generate; provider failure degrades to a fixed offline message and
// never propagates.
package llm

import (
	"context"
	"log"
)

// Provider defines the interface for generative text providers
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OfflineMessage is returned whenever the provider is unavailable.
const OfflineMessage = "I could not reach the knowledge service just now. The guidance above is based on built-in reference data; please try again later for a fuller answer."

// Answerer shields callers from provider failure.
type Answerer struct {
	provider Provider
}

func NewAnswerer(provider Provider) *Answerer {
	return &Answerer{provider: provider}
}

// Generate returns the provider's text, or the offline message when the
// provider is nil or errors.
func (a *Answerer) Generate(ctx context.Context, prompt string) string {
	if a == nil || a.provider == nil {
		return OfflineMessage
	}
	text, err := a.provider.Generate(ctx, prompt)
	if err != nil {
		log.Printf("⚠️ LLM generation failed: %v", err)
		return OfflineMessage
	}
	return text
}
