package llm_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/alan-mat/tome/internal/llm"
)

// fakeModel is a deterministic stand-in for the model collaborator. A
// token id is the length of the word it encodes; the hidden state for
// token id t is the vector [t, t+1, t+2, ...], which makes pooled values
// easy to compute by hand.
type fakeModel struct {
	hiddenSize int

	tokenizeMaxLength int
	generateMaxLength int
	encodeCalls       int
	forwardCalls      int

	generated   []int64
	decoded     string
	generateErr error
}

func (m *fakeModel) Tokenize(ctx context.Context, texts []string, maxLength int) ([][]int64, error) {
	m.tokenizeMaxLength = maxLength

	batch := make([][]int64, len(texts))
	for i, t := range texts {
		words := strings.Fields(t)
		seq := make([]int64, len(words))
		for j, w := range words {
			seq[j] = int64(len(w))
		}
		if maxLength > 0 && len(seq) > maxLength {
			seq = seq[:maxLength]
		}
		batch[i] = seq
	}
	return batch, nil
}

func (m *fakeModel) Decode(ctx context.Context, tokens []int64, skipSpecial bool) (string, error) {
	return m.decoded, nil
}

func (m *fakeModel) Encode(ctx context.Context, batch [][]int64) ([][][]float32, error) {
	m.encodeCalls++
	return m.states(batch), nil
}

func (m *fakeModel) Forward(ctx context.Context, batch [][]int64) ([][][]float32, error) {
	m.forwardCalls++
	return m.states(batch), nil
}

func (m *fakeModel) Generate(ctx context.Context, input []int64, maxLength int) ([]int64, error) {
	m.generateMaxLength = maxLength
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return m.generated, nil
}

func (m *fakeModel) Config() llm.ModelConfig {
	return llm.ModelConfig{
		MaxPositionEmbeddings: 1024,
		HiddenSize:            m.hiddenSize,
	}
}

func (m *fakeModel) states(batch [][]int64) [][][]float32 {
	out := make([][][]float32, len(batch))
	for i, seq := range batch {
		states := make([][]float32, len(seq))
		for j, tok := range seq {
			vec := make([]float32, m.hiddenSize)
			for d := range vec {
				vec[d] = float32(tok) + float32(d)
			}
			states[j] = vec
		}
		out[i] = states
	}
	return out
}

func TestNewConvention(t *testing.T) {
	for _, name := range []string{llm.ConventionSeq2Seq, llm.ConventionCausal} {
		conv, err := llm.NewConvention(name)
		if err != nil {
			t.Fatalf("expected nil error for '%s', got %v", name, err)
		}
		if conv.Name() != name {
			t.Errorf("expected convention name '%s', got '%s'", name, conv.Name())
		}
	}
}

func TestNewConventionInvalid(t *testing.T) {
	_, err := llm.NewConvention("recurrent")
	if !errors.Is(err, llm.ErrInvalidConvention) {
		t.Errorf("expected ErrInvalidConvention, got %v", err)
	}
}

func TestConventionGenerateCap(t *testing.T) {
	input := []int64{3, 4, 5, 6, 7}

	cases := []struct {
		name     string
		maxNew   int
		expected int
	}{
		{name: llm.ConventionSeq2Seq, maxNew: 20, expected: 20},
		{name: llm.ConventionCausal, maxNew: 20, expected: 25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conv, err := llm.NewConvention(tc.name)
			if err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}

			m := &fakeModel{hiddenSize: 2}
			_, err = conv.Generate(context.Background(), m, input, tc.maxNew)
			if err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
			if m.generateMaxLength != tc.expected {
				t.Errorf("expected model cap %d, got %d", tc.expected, m.generateMaxLength)
			}
		})
	}
}

func TestConventionHiddenStatesPath(t *testing.T) {
	batch := [][]int64{{1, 2}, {3}}

	t.Run(llm.ConventionSeq2Seq, func(t *testing.T) {
		conv, _ := llm.NewConvention(llm.ConventionSeq2Seq)
		m := &fakeModel{hiddenSize: 2}

		if _, err := conv.HiddenStates(context.Background(), m, batch); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if m.encodeCalls != 1 || m.forwardCalls != 0 {
			t.Errorf("expected encoder path, got encode=%d forward=%d", m.encodeCalls, m.forwardCalls)
		}
	})

	t.Run(llm.ConventionCausal, func(t *testing.T) {
		conv, _ := llm.NewConvention(llm.ConventionCausal)
		m := &fakeModel{hiddenSize: 2}

		if _, err := conv.HiddenStates(context.Background(), m, batch); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if m.encodeCalls != 0 || m.forwardCalls != 1 {
			t.Errorf("expected forward path, got encode=%d forward=%d", m.encodeCalls, m.forwardCalls)
		}
	})
}

func newTestEmbedder(m *fakeModel) *llm.Embedder {
	conv, _ := llm.NewConvention(llm.ConventionSeq2Seq)
	return llm.NewEmbedder(m, conv)
}

func TestEmbedderMeanPool(t *testing.T) {
	m := &fakeModel{hiddenSize: 4}
	e := newTestEmbedder(m)

	// tokens are [2, 3, 1], so dim d pools to (2+3+1)/3 + d = 2 + d
	vec, err := e.EmbedQuery(context.Background(), "ab abc a")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	expected := []float32{2, 3, 4, 5}
	if len(vec) != len(expected) {
		t.Fatalf("expected %d dimensions, got %d", len(expected), len(vec))
	}
	for i := range expected {
		if math.Abs(float64(vec[i]-expected[i])) > 1e-5 {
			t.Errorf("dimension %d: expected %f, got %f", i, expected[i], vec[i])
		}
	}
}

func TestEmbedderBatchMatchesSingle(t *testing.T) {
	texts := []string{
		"short one.",
		"a somewhat longer second text.",
		"third.",
	}

	m := &fakeModel{hiddenSize: 8}
	e := newTestEmbedder(m)

	batched, err := e.EmbedTexts(context.Background(), texts)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(batched) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(batched))
	}

	for i, text := range texts {
		single, err := e.EmbedQuery(context.Background(), text)
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		for d := range single {
			if math.Abs(float64(batched[i][d]-single[d])) > 1e-6 {
				t.Errorf("text %d dimension %d: batch %f, single %f", i, d, batched[i][d], single[d])
			}
		}
	}
}

func TestEmbedderTruncatesInput(t *testing.T) {
	m := &fakeModel{hiddenSize: 2}
	e := newTestEmbedder(m)

	if _, err := e.EmbedQuery(context.Background(), "some text"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if m.tokenizeMaxLength != llm.EmbedMaxTokens {
		t.Errorf("expected tokenize cap %d, got %d", llm.EmbedMaxTokens, m.tokenizeMaxLength)
	}
}

func TestEmbedderDimensions(t *testing.T) {
	m := &fakeModel{hiddenSize: 16}
	e := newTestEmbedder(m)

	if e.Dimensions() != 16 {
		t.Errorf("expected 16 dimensions, got %d", e.Dimensions())
	}
}

func TestGeneratorGenerate(t *testing.T) {
	m := &fakeModel{
		hiddenSize: 2,
		generated:  []int64{9, 9, 9},
		decoded:    "the answer",
	}
	conv, _ := llm.NewConvention(llm.ConventionSeq2Seq)
	g := llm.NewGenerator(m, conv)

	out, err := g.Generate(context.Background(), "a question", 64)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out != "the answer" {
		t.Errorf("expected 'the answer', got '%s'", out)
	}
	if m.tokenizeMaxLength != llm.PromptMaxTokens {
		t.Errorf("expected tokenize cap %d, got %d", llm.PromptMaxTokens, m.tokenizeMaxLength)
	}
	if m.generateMaxLength != 64 {
		t.Errorf("expected model cap 64, got %d", m.generateMaxLength)
	}
}

func TestGeneratorGenerateError(t *testing.T) {
	m := &fakeModel{
		hiddenSize:  2,
		generateErr: errors.New("model overloaded"),
	}
	conv, _ := llm.NewConvention(llm.ConventionCausal)
	g := llm.NewGenerator(m, conv)

	_, err := g.Generate(context.Background(), "a question", 64)
	if err == nil {
		t.Errorf("expected error, got nil")
	}
}

func TestTokenCounter(t *testing.T) {
	m := &fakeModel{hiddenSize: 2}
	c := llm.NewTokenCounter(m)

	n, err := c.CountTokens(context.Background(), "one two three")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 tokens, got %d", n)
	}
	if m.tokenizeMaxLength != 0 {
		t.Errorf("expected counting without truncation, got cap %d", m.tokenizeMaxLength)
	}
}
