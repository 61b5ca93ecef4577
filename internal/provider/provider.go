package provider

import (
	"context"
	"errors"

	"github.com/alan-mat/tome/internal/api"
	"github.com/alan-mat/tome/internal/llm"
	tome_cohere "github.com/alan-mat/tome/internal/provider/cohere"
	"github.com/alan-mat/tome/internal/provider/gemini"
	"github.com/alan-mat/tome/internal/provider/openai"
)

var (
	ErrInvalidEmbedderType  = errors.New("no embedder found for given name")
	ErrInvalidGeneratorType = errors.New("no generator found for given name")
	ErrInvalidRerankerType  = errors.New("no reranker found for given name")
)

// Backend names accepted by the provider factories.
const (
	BackendModel  = "model"
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
	BackendCohere = "cohere"
)

// Embedder converts texts into fixed-size vectors.
type Embedder interface {
	EmbedQuery(ctx context.Context, q string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Generator produces a text completion for a prompt, generating at most
// maxTokens new tokens.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Reranker reorders retrieved chunks by relevance to the query.
type Reranker interface {
	Rerank(ctx context.Context, query string, chunks []*api.ScoredChunk, limit int) ([]*api.ScoredChunk, error)
}

// NewEmbedder returns the embedding backend registered under name. The
// "model" backend mean-pools hidden states of the local model m under
// conv; remote backends ignore both.
func NewEmbedder(name string, m llm.LanguageModel, conv llm.Convention) (Embedder, error) {
	switch name {
	case BackendModel:
		return llm.NewEmbedder(m, conv), nil
	case BackendOpenAI:
		return openai.New(), nil
	case BackendGemini:
		return gemini.New(), nil
	default:
		return nil, ErrInvalidEmbedderType
	}
}

// NewGenerator returns the generation backend registered under name,
// following the same convention rules as [NewEmbedder].
func NewGenerator(name string, m llm.LanguageModel, conv llm.Convention) (Generator, error) {
	switch name {
	case BackendModel:
		return llm.NewGenerator(m, conv), nil
	case BackendOpenAI:
		return openai.New(), nil
	case BackendGemini:
		return gemini.New(), nil
	default:
		return nil, ErrInvalidGeneratorType
	}
}

func NewReranker(name string) (Reranker, error) {
	switch name {
	case BackendCohere:
		return tome_cohere.New(), nil
	default:
		return nil, ErrInvalidRerankerType
	}
}
