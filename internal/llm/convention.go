package llm

import (
	"context"
	"errors"
	"fmt"
)

var ErrInvalidConvention = errors.New("no decoding convention found for given name")

const (
	ConventionSeq2Seq = "seq2seq"
	ConventionCausal  = "causal"
)

// Convention encapsulates the two behaviors that diverge between model
// families: the length-budget rule for generation and the hidden-state
// path used for embedding. Sequence-to-sequence models treat the
// generation cap as absolute and embed through the encoder alone; causal
// models continue their input, so the cap grows with it and embedding
// requires the full forward pass.
type Convention interface {
	Name() string

	Generate(ctx context.Context, m LanguageModel, input []int64, maxNew int) ([]int64, error)

	HiddenStates(ctx context.Context, m LanguageModel, batch [][]int64) ([][][]float32, error)
}

// NewConvention returns the decoding convention registered under name.
// Unknown names are an error, never silently defaulted.
func NewConvention(name string) (Convention, error) {
	switch name {
	case ConventionSeq2Seq:
		return seq2seqConvention{}, nil
	case ConventionCausal:
		return causalConvention{}, nil
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidConvention, name)
	}
}

type seq2seqConvention struct{}

func (seq2seqConvention) Name() string {
	return ConventionSeq2Seq
}

func (seq2seqConvention) Generate(ctx context.Context, m LanguageModel, input []int64, maxNew int) ([]int64, error) {
	return m.Generate(ctx, input, maxNew)
}

func (seq2seqConvention) HiddenStates(ctx context.Context, m LanguageModel, batch [][]int64) ([][][]float32, error) {
	return m.Encode(ctx, batch)
}

type causalConvention struct{}

func (causalConvention) Name() string {
	return ConventionCausal
}

func (causalConvention) Generate(ctx context.Context, m LanguageModel, input []int64, maxNew int) ([]int64, error) {
	// generated text continues the input rather than replacing it
	return m.Generate(ctx, input, len(input)+maxNew)
}

func (causalConvention) HiddenStates(ctx context.Context, m LanguageModel, batch [][]int64) ([][][]float32, error) {
	return m.Forward(ctx, batch)
}
