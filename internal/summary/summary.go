package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/alan-mat/tome/internal/provider"
)

const summarizePrompt = "Summarize the following text concisely:\n\n"

// Summarizer compresses a chunk into a shorter text before it is embedded
// and stored.
type Summarizer struct {
	gen provider.Generator
}

func New(gen provider.Generator) *Summarizer {
	return &Summarizer{gen: gen}
}

// Summarize generates a summary of at most maxTokens tokens. The combined
// instruction and chunk text is truncated by the generation path.
func (s *Summarizer) Summarize(ctx context.Context, text string, maxTokens int) (string, error) {
	out, err := s.gen.Generate(ctx, summarizePrompt+text, maxTokens)
	if err != nil {
		return "", fmt.Errorf("failed to summarize chunk: %w", err)
	}
	return strings.TrimSpace(out), nil
}
