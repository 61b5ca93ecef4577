// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package llm

import "context"

// ModelConfig exposes the read-only limits of a loaded language model.
type ModelConfig struct {
	MaxPositionEmbeddings int
	HiddenSize            int
}

// LanguageModel is the capability surface of the pretrained model backing
// the pipeline. All operations are blocking; callers pass a context to
// bound collaborator round-trips.
type LanguageModel interface {
	// Tokenize encodes a batch of texts into token id sequences.
	// maxLength > 0 truncates every sequence to at most maxLength tokens,
	// maxLength <= 0 disables truncation. Sequences are ragged, never padded.
	Tokenize(ctx context.Context, texts []string, maxLength int) ([][]int64, error)

	// Decode is the tokenizer inverse. skipSpecial drops control tokens
	// from the output.
	Decode(ctx context.Context, tokens []int64, skipSpecial bool) (string, error)

	// Encode runs the encoder path only and returns per-token hidden
	// states, one [seqLen][hiddenSize] matrix per input sequence.
	Encode(ctx context.Context, batch [][]int64) ([][][]float32, error)

	// Forward runs the full model and returns per-token hidden states.
	Forward(ctx context.Context, batch [][]int64) ([][][]float32, error)

	// Generate completes the input sequence. The meaning of maxLength is
	// owned by the decoding convention driving the call.
	Generate(ctx context.Context, input []int64, maxLength int) ([]int64, error)

	Config() ModelConfig
}

// TokenCounter adapts a model tokenizer for encode-only token counting,
// without truncation.
type TokenCounter struct {
	model LanguageModel
}

func NewTokenCounter(m LanguageModel) *TokenCounter {
	return &TokenCounter{model: m}
}

func (c *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	tokens, err := c.model.Tokenize(ctx, []string{text}, 0)
	if err != nil {
		return 0, err
	}
	return len(tokens[0]), nil
}
