package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alan-mat/tome/internal/provider"
)

const (
	promptWithContext = "Context: %s\n\nQuestion: %s\n\nAnswer:"
	promptPlain       = "Question: %s\n\nAnswer:"

	structuredInstruction = "\n\nRespond with a JSON object matching this structure: %s\n\nJSON:"
)

// Answerer assembles prompts, optionally augmented with retrieved context,
// and turns them into plain or structured answers. Its generation backend
// carries the decoding convention, fixed at construction.
type Answerer struct {
	store *Store
	gen   provider.Generator
}

func NewAnswerer(store *Store, gen provider.Generator) *Answerer {
	return &Answerer{
		store: store,
		gen:   gen,
	}
}

// Answer generates a reply to prompt, conditioned on retrieved context when
// useContext is set. It never returns a fault: any error from retrieval,
// tokenization or generation comes back as readable text.
func (a *Answerer) Answer(ctx context.Context, prompt string, useContext bool, maxTokens int) string {
	assembled, err := a.assemble(ctx, prompt, useContext)
	if err != nil {
		slog.Warn("context retrieval failed", "err", err)
		return errorText(err)
	}

	out, err := a.gen.Generate(ctx, assembled, maxTokens)
	if err != nil {
		slog.Warn("generation failed", "err", err)
		return errorText(err)
	}
	return strings.TrimSpace(out)
}

// AnswerStructured assembles the prompt like [Answerer.Answer] and runs it
// through the structured-output path.
func (a *Answerer) AnswerStructured(ctx context.Context, prompt string, useContext bool, structure map[string]any, maxTokens int) map[string]any {
	assembled, err := a.assemble(ctx, prompt, useContext)
	if err != nil {
		slog.Warn("context retrieval failed", "err", err)
		return errorRecord(err)
	}
	return a.GenerateStructured(ctx, assembled, structure, maxTokens)
}

// GenerateStructured prompts for an answer in the shape of structure, a
// mapping of field names to intended value types, and parses the decoded
// output as JSON. The parsed mapping is returned verbatim; fields are not
// re-validated against structure. A parse failure yields an error record
// carrying the raw model output for diagnosis.
func (a *Answerer) GenerateStructured(ctx context.Context, prompt string, structure map[string]any, maxTokens int) map[string]any {
	rendered, err := json.Marshal(structure)
	if err != nil {
		return errorRecord(err)
	}

	full := prompt + fmt.Sprintf(structuredInstruction, rendered)
	out, err := a.gen.Generate(ctx, full, maxTokens)
	if err != nil {
		slog.Warn("structured generation failed", "err", err)
		return errorRecord(err)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &parsed); err != nil {
		return map[string]any{
			"error":        "Failed to generate valid JSON structure",
			"raw_response": out,
		}
	}
	return parsed
}

func (a *Answerer) assemble(ctx context.Context, prompt string, useContext bool) (string, error) {
	if !useContext {
		return fmt.Sprintf(promptPlain, prompt), nil
	}

	// an empty store yields empty context and generation proceeds without it
	retrieved, err := a.store.Query(ctx, prompt, 0)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(promptWithContext, retrieved, prompt), nil
}

func errorText(err error) string {
	return fmt.Sprintf("An error occurred: %v", err)
}

func errorRecord(err error) map[string]any {
	return map[string]any{
		"error": errorText(err),
	}
}
