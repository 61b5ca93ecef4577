package vector

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/alan-mat/tome/internal/api"
)

// MemoryIndex keeps texts and embeddings in two parallel append-only
// slices, living and dying with the process. The mutex guards the slices
// themselves; callers that need ordering between appends and searches
// still serialize their calls.
type MemoryIndex struct {
	mu      sync.RWMutex
	texts   []string
	vectors [][]float32
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

func (idx *MemoryIndex) Append(ctx context.Context, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return ErrLengthMismatch
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.texts = append(idx.texts, texts...)
	idx.vectors = append(idx.vectors, vectors...)
	return nil
}

func (idx *MemoryIndex) Search(ctx context.Context, vector []float32, k int) ([]*api.ScoredChunk, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if k > len(idx.texts) {
		k = len(idx.texts)
	}
	if k <= 0 {
		return nil, nil
	}

	scored := make([]*api.ScoredChunk, 0, len(idx.texts))
	for i, vec := range idx.vectors {
		scored = append(scored, &api.ScoredChunk{
			Text:  idx.texts[i],
			Score: cosine(vector, vec),
		})
	}

	// stable: exact score ties keep insertion order
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored[:k], nil
}

func (idx *MemoryIndex) Len(ctx context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.texts), nil
}

func (idx *MemoryIndex) Close() error {
	return nil
}

// cosine returns the normalized dot product of a and b.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}

	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
