package tome_cohere

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alan-mat/tome/internal/api"
	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

type CohereProvider struct {
	client *cohereclient.Client
}

func New() *CohereProvider {
	c := cohereclient.NewClient(
		cohereclient.WithToken(os.Getenv("COHERE_API_KEY")),
		cohereclient.WithHTTPClient(
			&http.Client{
				Timeout: 60 * time.Second,
			},
		),
	)
	return &CohereProvider{
		client: c,
	}
}

// Rerank reorders chunks by their relevance to query and keeps at most
// limit of them (0 keeps all).
func (p CohereProvider) Rerank(ctx context.Context, query string, chunks []*api.ScoredChunk, limit int) ([]*api.ScoredChunk, error) {
	if query == "" {
		return nil, fmt.Errorf("rerank request failed: missing query")
	}

	if len(chunks) == 0 {
		return chunks, nil
	}

	docs := make([]string, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, c.Text)
	}

	returnDocuments := true
	coReq := &cohere.V2RerankRequest{
		Query:           query,
		Documents:       docs,
		Model:           "rerank-v3.5",
		ReturnDocuments: &returnDocuments,
	}

	if limit != 0 {
		coReq.TopN = &limit
	}

	resp, err := p.client.V2.Rerank(ctx, coReq)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}

	reranked := make([]*api.ScoredChunk, 0, len(resp.Results))
	for _, result := range resp.Results {
		reranked = append(reranked, &api.ScoredChunk{
			Text:  result.Document.Text,
			Score: result.RelevanceScore,
		})
	}

	return reranked, nil
}
