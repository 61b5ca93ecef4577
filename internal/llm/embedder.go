package llm

import (
	"context"
	"fmt"
)

// EmbedMaxTokens caps the tokenized input length for embedding requests.
const EmbedMaxTokens = 512

// Embedder turns texts into fixed-size vectors by mean pooling the model's
// per-token hidden states. Vector dimensionality equals the model's hidden
// size.
type Embedder struct {
	model LanguageModel
	conv  Convention
}

func NewEmbedder(m LanguageModel, conv Convention) *Embedder {
	return &Embedder{
		model: m,
		conv:  conv,
	}
}

func (e *Embedder) Dimensions() int {
	return e.model.Config().HiddenSize
}

func (e *Embedder) EmbedQuery(ctx context.Context, q string) ([]float32, error) {
	vecs, err := e.EmbedTexts(ctx, []string{q})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts embeds a batch of texts, one vector per input. Sequences are
// ragged, so every text pools over its own tokens only and the result
// matches embedding the texts one at a time.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batch, err := e.model.Tokenize(ctx, texts, EmbedMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize texts: %w", err)
	}

	states, err := e.conv.HiddenStates(ctx, e.model, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to compute hidden states: %w", err)
	}

	vecs := make([][]float32, 0, len(states))
	for _, seq := range states {
		vecs = append(vecs, meanPool(seq))
	}
	return vecs, nil
}

// meanPool averages per-token hidden states into a single vector.
func meanPool(states [][]float32) []float32 {
	if len(states) == 0 {
		return nil
	}

	dims := len(states[0])
	sums := make([]float64, dims)
	for _, token := range states {
		for i, v := range token {
			sums[i] += float64(v)
		}
	}

	vec := make([]float32, dims)
	for i, s := range sums {
		vec[i] = float32(s / float64(len(states)))
	}
	return vec
}
