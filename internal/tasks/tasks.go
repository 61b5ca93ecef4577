package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypeIngest = "tome:ingest"
	TypeAsk    = "tome:ask"
)

type IngestPayload struct {
	Documents    []string `json:"documents"`
	UseSummaries bool     `json:"use_summaries"`
}

func NewIngestTask(documents []string, useSummaries bool) (*asynq.Task, error) {
	p := IngestPayload{
		Documents:    documents,
		UseSummaries: useSummaries,
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeIngest, payload), nil
}

type AskPayload struct {
	Prompt     string         `json:"prompt"`
	UseContext bool           `json:"use_context"`
	MaxTokens  int            `json:"max_tokens"`
	Structure  map[string]any `json:"structure,omitempty"`
}

func NewAskTask(p AskPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAsk, payload), nil
}
