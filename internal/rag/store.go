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

package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alan-mat/tome/internal/chunk"
	"github.com/alan-mat/tome/internal/provider"
	"github.com/alan-mat/tome/internal/summary"
	"github.com/alan-mat/tome/internal/vector"
)

var ErrNoSummarizer = errors.New("store has no summarizer configured")

const (
	// DefaultReservedMargin is the slice of the model input window kept
	// free for the question and answer appended at query time.
	DefaultReservedMargin = 100

	DefaultTopK = 3

	DefaultSummaryTokens = 64
)

// Store ties the ingestion pipeline together: documents are chunked,
// optionally summarized, embedded and appended to a vector index. Add and
// Query are blocking and run to completion; callers using a Store from
// multiple goroutines serialize them.
type Store struct {
	chunker  *chunk.Chunker
	embedder provider.Embedder
	index    vector.Index

	summarizer *summary.Summarizer
	reranker   provider.Reranker

	budget        int
	topK          int
	summaryTokens int
}

type StoreOption func(*Store)

// NewStore creates an empty store. budget is the chunk token budget,
// typically the model's maximum input length minus [DefaultReservedMargin].
func NewStore(chunker *chunk.Chunker, embedder provider.Embedder, index vector.Index, budget int, opts ...StoreOption) *Store {
	s := &Store{
		chunker:       chunker,
		embedder:      embedder,
		index:         index,
		budget:        budget,
		topK:          DefaultTopK,
		summaryTokens: DefaultSummaryTokens,
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

func WithSummarizer(sum *summary.Summarizer) StoreOption {
	return func(s *Store) {
		s.summarizer = sum
	}
}

func WithReranker(r provider.Reranker) StoreOption {
	return func(s *Store) {
		s.reranker = r
	}
}

func WithTopK(k int) StoreOption {
	return func(s *Store) {
		if k > 0 {
			s.topK = k
		}
	}
}

func WithSummaryTokens(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.summaryTokens = n
		}
	}
}

// Add ingests documents and reports the number of chunks added together
// with the cumulative store size. With useSummaries every chunk is
// replaced by its summary before embedding and storage. Faults from
// chunking, summarization or embedding propagate unmodified and leave the
// index untouched.
func (s *Store) Add(ctx context.Context, documents []string, useSummaries bool) (added int, total int, err error) {
	texts := make([]string, 0, len(documents))
	for _, doc := range documents {
		chunks, err := s.chunker.Split(ctx, doc, s.budget)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to chunk document: %w", err)
		}

		if useSummaries {
			if s.summarizer == nil {
				return 0, 0, ErrNoSummarizer
			}
			for i, c := range chunks {
				sum, err := s.summarizer.Summarize(ctx, c, s.summaryTokens)
				if err != nil {
					return 0, 0, err
				}
				chunks[i] = sum
			}
		}

		texts = append(texts, chunks...)
	}

	if len(texts) == 0 {
		total, err := s.index.Len(ctx)
		return 0, total, err
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to embed %d chunks: %w", len(texts), err)
	}

	// the index mutates only after every chunk embedded successfully
	if err := s.index.Append(ctx, texts, vectors); err != nil {
		return 0, 0, err
	}

	total, err = s.index.Len(ctx)
	if err != nil {
		return len(texts), 0, err
	}

	slog.Info("documents ingested", "documents", len(documents), "chunks", len(texts), "total", total)
	return len(texts), total, nil
}

// Query returns the k stored chunks most similar to question, joined with
// single spaces in descending-similarity order. k <= 0 uses the store
// default; k larger than the store size is clamped. An empty store yields
// an empty string, not an error.
func (s *Store) Query(ctx context.Context, question string, k int) (string, error) {
	if k <= 0 {
		k = s.topK
	}

	n, err := s.index.Len(ctx)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if k > n {
		k = n
	}

	vec, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return "", fmt.Errorf("failed to embed question: %w", err)
	}

	scored, err := s.index.Search(ctx, vec, k)
	if err != nil {
		return "", fmt.Errorf("failed to search index: %w", err)
	}

	if s.reranker != nil {
		scored, err = s.reranker.Rerank(ctx, question, scored, k)
		if err != nil {
			return "", fmt.Errorf("failed to rerank results: %w", err)
		}
	}

	parts := make([]string, 0, len(scored))
	for _, sc := range scored {
		parts = append(parts, sc.Text)
	}
	return strings.Join(parts, " "), nil
}

// Len reports the number of chunks currently stored.
func (s *Store) Len(ctx context.Context) (int, error) {
	return s.index.Len(ctx)
}
