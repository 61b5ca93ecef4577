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

package rag_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alan-mat/tome/internal/chunk"
	"github.com/alan-mat/tome/internal/rag"
	"github.com/alan-mat/tome/internal/summary"
	"github.com/alan-mat/tome/internal/vector"
)

// wordCounter treats every whitespace-separated word as one token.
type wordCounter struct{}

func (wordCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return len(strings.Fields(text)), nil
}

// fakeEmbedder hashes characters into a fixed number of dimensions.
// Vectors for specific texts can be pinned through the vectors map.
type fakeEmbedder struct {
	dims    int
	vectors map[string][]float32
	err     error
}

func (e *fakeEmbedder) EmbedQuery(ctx context.Context, q string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(q), nil
}

func (e *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *fakeEmbedder) Dimensions() int {
	return e.dims
}

func (e *fakeEmbedder) vector(text string) []float32 {
	if v, ok := e.vectors[text]; ok {
		return v
	}
	v := make([]float32, e.dims)
	for _, r := range text {
		v[int(r)%e.dims]++
	}
	return v
}

// fakeGenerator records prompts and returns a fixed output.
type fakeGenerator struct {
	output string
	err    error

	prompts   []string
	maxTokens []int
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	g.prompts = append(g.prompts, prompt)
	g.maxTokens = append(g.maxTokens, maxTokens)
	if g.err != nil {
		return "", g.err
	}
	return g.output, nil
}

func newTestStore(e *fakeEmbedder, opts ...rag.StoreOption) *rag.Store {
	chunker := chunk.NewChunker(chunk.NewRegexSplitter(), wordCounter{})
	return rag.NewStore(chunker, e, vector.NewMemoryIndex(), 400, opts...)
}

func TestStoreAddReportsCounts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(&fakeEmbedder{dims: 8})

	documents := []string{
		"Paris is the largest and most important city in France.",
		"The Eiffel Tower is located in Paris.",
		"France is known for its cuisine, including croissants and baguettes.",
		"The Louvre Museum in Paris houses the Mona Lisa painting.",
		"French is the official language of France.",
	}

	added, total, err := store.Add(ctx, documents, false)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if added != 5 {
		t.Errorf("expected 5 chunks added, got %d", added)
	}
	if total != 5 {
		t.Errorf("expected 5 chunks total, got %d", total)
	}

	added, total, err = store.Add(ctx, documents[:2], false)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if added != 2 || total != 7 {
		t.Errorf("expected added=2 total=7, got added=%d total=%d", added, total)
	}
}

func TestStoreAddEmbedFailureLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(&fakeEmbedder{
		dims: 8,
		err:  errors.New("embedding backend unavailable"),
	})

	_, _, err := store.Add(ctx, []string{"A document."}, false)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}

	n, err := store.Len(ctx)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if n != 0 {
		t.Errorf("expected empty store after failed ingestion, got %d chunks", n)
	}
}

func TestStoreAddEmptyDocuments(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(&fakeEmbedder{dims: 8})

	added, total, err := store.Add(ctx, []string{""}, false)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if added != 0 || total != 0 {
		t.Errorf("expected added=0 total=0, got added=%d total=%d", added, total)
	}
}

func TestStoreQueryOrdering(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(&fakeEmbedder{
		dims: 2,
		vectors: map[string][]float32{
			"alpha.":   {1, 0},
			"beta.":    {0, 1},
			"gamma.":   {0.8, 0.6},
			"find it?": {1, 0},
		},
	})

	if _, _, err := store.Add(ctx, []string{"alpha.", "beta.", "gamma."}, false); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	res, err := store.Query(ctx, "find it?", 2)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if res != "alpha. gamma." {
		t.Errorf("expected 'alpha. gamma.', got '%s'", res)
	}
}

func TestStoreQueryClampsK(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(&fakeEmbedder{
		dims: 2,
		vectors: map[string][]float32{
			"alpha.":   {1, 0},
			"beta.":    {0, 1},
			"find it?": {1, 0},
		},
	})

	if _, _, err := store.Add(ctx, []string{"alpha.", "beta."}, false); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	res, err := store.Query(ctx, "find it?", 10)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if res != "alpha. beta." {
		t.Errorf("expected 'alpha. beta.', got '%s'", res)
	}
}

func TestStoreQueryEmptyStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(&fakeEmbedder{dims: 8})

	res, err := store.Query(ctx, "anything?", 3)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if res != "" {
		t.Errorf("expected empty result from empty store, got '%s'", res)
	}
}

func TestStoreQueryDefaultK(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(&fakeEmbedder{dims: 8}, rag.WithTopK(1))

	documents := []string{"alpha.", "beta.", "gamma."}
	if _, _, err := store.Add(ctx, documents, false); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	res, err := store.Query(ctx, "alpha.", 0)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if strings.Contains(res, " ") {
		t.Errorf("expected a single chunk with topK=1, got '%s'", res)
	}
}

func TestStoreRetrieval(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(&fakeEmbedder{dims: 16})

	documents := []string{
		"Paris is the largest and most important city in France.",
		"The Eiffel Tower is located in Paris.",
		"France is known for its cuisine, including croissants and baguettes.",
		"The Louvre Museum in Paris houses the Mona Lisa painting.",
		"French is the official language of France.",
	}
	if _, _, err := store.Add(ctx, documents, false); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	res, err := store.Query(ctx, "What is the capital of France?", 3)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if res == "" {
		t.Fatalf("expected non-empty retrieval result")
	}

	// every returned chunk must come from the stored documents
	for _, doc := range documents {
		res = strings.ReplaceAll(res, doc, "")
	}
	if strings.TrimSpace(res) != "" {
		t.Errorf("retrieval returned text not present in the store: '%s'", res)
	}
}

func TestStoreAddWithSummaries(t *testing.T) {
	ctx := context.Background()

	gen := &fakeGenerator{output: "a short summary"}
	store := newTestStore(
		&fakeEmbedder{dims: 8},
		rag.WithSummarizer(summary.New(gen)),
		rag.WithSummaryTokens(32),
	)

	added, total, err := store.Add(ctx, []string{"A very long passage about something."}, true)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if added != 1 || total != 1 {
		t.Errorf("expected added=1 total=1, got added=%d total=%d", added, total)
	}

	if len(gen.prompts) != 1 {
		t.Fatalf("expected 1 summarization call, got %d", len(gen.prompts))
	}
	if !strings.HasPrefix(gen.prompts[0], "Summarize the following text concisely:") {
		t.Errorf("unexpected summarization prompt: '%s'", gen.prompts[0])
	}
	if gen.maxTokens[0] != 32 {
		t.Errorf("expected summary budget 32, got %d", gen.maxTokens[0])
	}

	// the summary replaces the chunk in storage
	res, err := store.Query(ctx, "a short summary", 1)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if res != "a short summary" {
		t.Errorf("expected stored summary text, got '%s'", res)
	}
}

func TestStoreAddSummariesWithoutSummarizer(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(&fakeEmbedder{dims: 8})

	_, _, err := store.Add(ctx, []string{"A document."}, true)
	if !errors.Is(err, rag.ErrNoSummarizer) {
		t.Errorf("expected ErrNoSummarizer, got %v", err)
	}
}
