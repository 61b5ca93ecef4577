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

package vector

import (
	"context"
	"errors"
	"fmt"

	"github.com/alan-mat/tome/internal/api"
)

var (
	ErrInvalidIndexType      = errors.New("no vector index found for given name")
	ErrFailedIndexInitialize = errors.New("failed to initialise vector index")
	ErrLengthMismatch        = errors.New("texts and vectors must have equal length")
)

const (
	IndexTypeMemory = iota
	IndexTypeQdrant
)

var indexTypeMap = map[string]IndexType{
	"memory": IndexTypeMemory,
	"qdrant": IndexTypeQdrant,
}

type IndexType int

// Index stores chunk texts alongside their embedding vectors and answers
// nearest-neighbour queries by cosine similarity. Rows are append-only;
// there is no deletion or update.
type Index interface {
	// Append stores texts and their vectors, preserving order and the
	// text-vector correspondence. Both slices must have equal length.
	Append(ctx context.Context, texts []string, vectors [][]float32) error

	// Search returns the k stored chunks most similar to vector, best
	// match first. k larger than the index size is clamped.
	Search(ctx context.Context, vector []float32, k int) ([]*api.ScoredChunk, error)

	// Len reports the number of stored chunks.
	Len(ctx context.Context) (int, error)

	Close() error
}

// IndexParams carries backend-specific settings consumed by [NewIndex].
type IndexParams struct {
	Collection string
	Dimensions uint

	Host string
	Port int
}

func NewIndex(indexName string, params IndexParams) (Index, error) {
	indexType, ok := indexTypeMap[indexName]
	if !ok {
		return nil, ErrInvalidIndexType
	}

	switch indexType {
	case IndexTypeMemory:
		return NewMemoryIndex(), nil

	case IndexTypeQdrant:
		index, err := NewQdrantIndex(params.Host, params.Port, params.Collection, params.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedIndexInitialize, err)
		}
		return index, nil

	default:
		return nil, ErrInvalidIndexType
	}
}
