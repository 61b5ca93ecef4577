package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alan-mat/tome/internal/rag"
	"github.com/alan-mat/tome/internal/transport"
	"github.com/hibiken/asynq"
)

type IngestTaskHandler struct {
	store     *rag.Store
	transport transport.Transport
}

func NewIngestTaskHandler(store *rag.Store, t transport.Transport) *IngestTaskHandler {
	return &IngestTaskHandler{
		store:     store,
		transport: t,
	}
}

func (h *IngestTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p IngestPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}

	id := t.ResultWriter().TaskID()
	slog.Info("received ingest task", "id", id, "documents", len(p.Documents), "summaries", p.UseSummaries)

	ms, err := h.transport.GetMessageStream(id)
	if err != nil {
		return err
	}

	added, total, err := h.store.Add(ctx, p.Documents, p.UseSummaries)
	if err != nil {
		ms.Send(ctx, transport.MessageStreamPayload{
			Status:  transport.StatusErr,
			Content: err.Error(),
		})
		return err
	}

	return ms.Send(ctx, transport.MessageStreamPayload{
		Status:  transport.StatusDone,
		Content: fmt.Sprintf("Added %d chunks from %d documents. Total chunks in store: %d", added, len(p.Documents), total),
	})
}

type AskTaskHandler struct {
	answerer  *rag.Answerer
	transport transport.Transport
}

func NewAskTaskHandler(answerer *rag.Answerer, t transport.Transport) *AskTaskHandler {
	return &AskTaskHandler{
		answerer:  answerer,
		transport: t,
	}
}

func (h *AskTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p AskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}

	id := t.ResultWriter().TaskID()
	slog.Info("received ask task", "id", id, "prompt", p.Prompt, "context", p.UseContext, "structured", p.Structure != nil)

	ms, err := h.transport.GetMessageStream(id)
	if err != nil {
		return err
	}

	// the answer path never faults, errors come back as payloads
	var content string
	if p.Structure != nil {
		result := h.answerer.AnswerStructured(ctx, p.Prompt, p.UseContext, p.Structure, p.MaxTokens)
		rendered, err := json.Marshal(result)
		if err != nil {
			ms.Send(ctx, transport.MessageStreamPayload{
				Status:  transport.StatusErr,
				Content: err.Error(),
			})
			return err
		}
		content = string(rendered)
	} else {
		content = h.answerer.Answer(ctx, p.Prompt, p.UseContext, p.MaxTokens)
	}

	return ms.Send(ctx, transport.MessageStreamPayload{
		Status:  transport.StatusDone,
		Content: content,
	})
}
