package remote

import (
	"context"
	"fmt"

	"github.com/alan-mat/tome/internal/http"
	"github.com/alan-mat/tome/internal/llm"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultEndpoint = "http://localhost:8601"

	// encodeBatchSize bounds the number of sequences per hidden-state
	// request so a large ingest does not exceed the server request limit.
	encodeBatchSize = 32
)

type tokenizeResponse struct {
	Tokens [][]int64 `json:"tokens"`
}

type decodeResponse struct {
	Text string `json:"text"`
}

type hiddenStatesResponse struct {
	HiddenStates [][][]float32 `json:"hidden_states"`
}

type generateResponse struct {
	Tokens []int64 `json:"tokens"`
}

type configResponse struct {
	MaxPositionEmbeddings int `json:"max_position_embeddings"`
	HiddenSize            int `json:"hidden_size"`
}

// Client implements [llm.LanguageModel] against a tome model server, a
// sidecar that wraps one loaded transformer checkpoint and exposes its
// tokenizer, hidden-state and generation endpoints over HTTP.
type Client struct {
	client http.Client
	config llm.ModelConfig
}

// New connects to the model server at endpoint and reads the model config.
func New(endpoint string, opts ...http.ClientOption) (*Client, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	c := &Client{
		client: http.NewClient(endpoint, opts...),
	}

	var conf configResponse
	err := c.client.Request(context.Background(), http.MethodGet, "/v1/config", nil, &conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read model config: %w", err)
	}

	c.config = llm.ModelConfig{
		MaxPositionEmbeddings: conf.MaxPositionEmbeddings,
		HiddenSize:            conf.HiddenSize,
	}
	return c, nil
}

func (c *Client) Tokenize(ctx context.Context, texts []string, maxLength int) ([][]int64, error) {
	payload := map[string]any{
		"texts": texts,
	}
	if maxLength > 0 {
		payload["max_length"] = maxLength
	}

	var resp tokenizeResponse
	err := c.client.Request(ctx, http.MethodPost, "/v1/tokenize", payload, &resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Tokens) != len(texts) {
		return nil, fmt.Errorf("model server returned %d sequences for %d texts", len(resp.Tokens), len(texts))
	}
	return resp.Tokens, nil
}

func (c *Client) Decode(ctx context.Context, tokens []int64, skipSpecial bool) (string, error) {
	payload := map[string]any{
		"tokens":              tokens,
		"skip_special_tokens": skipSpecial,
	}

	var resp decodeResponse
	err := c.client.Request(ctx, http.MethodPost, "/v1/decode", payload, &resp)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (c *Client) Encode(ctx context.Context, batch [][]int64) ([][][]float32, error) {
	return c.hiddenStates(ctx, "/v1/encode", batch)
}

func (c *Client) Forward(ctx context.Context, batch [][]int64) ([][][]float32, error) {
	return c.hiddenStates(ctx, "/v1/forward", batch)
}

func (c *Client) hiddenStates(ctx context.Context, path string, batch [][]int64) ([][][]float32, error) {
	states := make([][][]float32, len(batch))

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(batch); start += encodeBatchSize {
		end := min(start+encodeBatchSize, len(batch))

		g.Go(func() error {
			var resp hiddenStatesResponse
			err := c.client.Request(ctx, http.MethodPost, path, map[string]any{
				"tokens": batch[start:end],
			}, &resp)
			if err != nil {
				return err
			}

			if len(resp.HiddenStates) != end-start {
				return fmt.Errorf("model server returned %d states for %d sequences", len(resp.HiddenStates), end-start)
			}

			copy(states[start:end], resp.HiddenStates)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return states, nil
}

func (c *Client) Generate(ctx context.Context, input []int64, maxLength int) ([]int64, error) {
	payload := map[string]any{
		"tokens":     input,
		"max_length": maxLength,
	}

	var resp generateResponse
	err := c.client.Request(ctx, http.MethodPost, "/v1/generate", payload, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Tokens, nil
}

func (c *Client) Config() llm.ModelConfig {
	return c.config
}
