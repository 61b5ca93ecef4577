package llm

import (
	"context"
	"fmt"
)

// PromptMaxTokens caps the tokenized prompt length for generation requests.
const PromptMaxTokens = 512

// Generator produces text completions under a decoding convention that is
// fixed at construction for the lifetime of the object.
type Generator struct {
	model LanguageModel
	conv  Convention
}

func NewGenerator(m LanguageModel, conv Convention) *Generator {
	return &Generator{
		model: m,
		conv:  conv,
	}
}

// Generate tokenizes prompt, truncated to [PromptMaxTokens], completes it
// under the active convention with at most maxTokens new tokens, and
// decodes the output with control tokens stripped.
func (g *Generator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	batch, err := g.model.Tokenize(ctx, []string{prompt}, PromptMaxTokens)
	if err != nil {
		return "", fmt.Errorf("failed to tokenize prompt: %w", err)
	}

	out, err := g.conv.Generate(ctx, g.model, batch[0], maxTokens)
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}

	text, err := g.model.Decode(ctx, out, true)
	if err != nil {
		return "", fmt.Errorf("failed to decode completion: %w", err)
	}
	return text, nil
}
