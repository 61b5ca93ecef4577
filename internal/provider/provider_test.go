package provider_test

import (
	"errors"
	"testing"

	"github.com/alan-mat/tome/internal/provider"
)

func TestNewEmbedderInvalidType(t *testing.T) {
	_, err := provider.NewEmbedder("word2vec", nil, nil)
	if !errors.Is(err, provider.ErrInvalidEmbedderType) {
		t.Errorf("expected ErrInvalidEmbedderType, got %v", err)
	}
}

func TestNewGeneratorInvalidType(t *testing.T) {
	_, err := provider.NewGenerator("markov", nil, nil)
	if !errors.Is(err, provider.ErrInvalidGeneratorType) {
		t.Errorf("expected ErrInvalidGeneratorType, got %v", err)
	}
}

func TestNewRerankerInvalidType(t *testing.T) {
	_, err := provider.NewReranker("bm25")
	if !errors.Is(err, provider.ErrInvalidRerankerType) {
		t.Errorf("expected ErrInvalidRerankerType, got %v", err)
	}
}
