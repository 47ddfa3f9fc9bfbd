package insight

import (
	"context"
	"fmt"

	"github.com/ent0n29/callcoach/internal/llm"
)

// Generator produces raw insight text. An empty answer means nothing to say.
type Generator interface {
	Generate(ctx context.Context, pc PromptContext) (string, error)
}

// LLMGenerator renders the prompt and asks a completion model.
type LLMGenerator struct {
	Completer   llm.Completer
	Model       string
	Temperature float64
	MaxTokens   int
}

// Generate implements Generator.
func (g LLMGenerator) Generate(ctx context.Context, pc PromptContext) (string, error) {
	answer, err := g.Completer.Complete(ctx, llm.Request{
		Model:       g.Model,
		Prompt:      BuildPrompt(pc),
		Temperature: g.Temperature,
		MaxTokens:   g.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate insight: %w", err)
	}
	return answer, nil
}
