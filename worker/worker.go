package worker

import (
	"fmt"
	"log/slog"

	"github.com/alan-mat/tome/internal/chunk"
	"github.com/alan-mat/tome/internal/llm"
	"github.com/alan-mat/tome/internal/llm/remote"
	"github.com/alan-mat/tome/internal/provider"
	"github.com/alan-mat/tome/internal/rag"
	"github.com/alan-mat/tome/internal/summary"
	"github.com/alan-mat/tome/internal/tasks"
	"github.com/alan-mat/tome/internal/transport"
	"github.com/alan-mat/tome/internal/vector"
	"github.com/hibiken/asynq"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	RedisAddr     string
	RedisUsername string
	RedisPassword string
	RedisDB       int

	// Concurrency above 1 interleaves ingest and ask tasks; the store
	// serializes nothing beyond index appends.
	Concurrency int

	ModelEndpoint string
	Convention    string

	Embedder  string
	Generator string
	Reranker  string

	Index      string
	Collection string
	QdrantHost string
	QdrantPort int

	ReservedMargin int
	TopK           int
	SummaryTokens  int
}

func DefaultConfig() Config {
	return Config{
		RedisAddr:      "localhost:6379",
		Concurrency:    1,
		ModelEndpoint:  remote.DefaultEndpoint,
		Convention:     llm.ConventionSeq2Seq,
		Embedder:       provider.BackendModel,
		Generator:      provider.BackendModel,
		Index:          "memory",
		Collection:     "default",
		QdrantHost:     "localhost",
		QdrantPort:     6334,
		ReservedMargin: rag.DefaultReservedMargin,
		TopK:           rag.DefaultTopK,
		SummaryTokens:  rag.DefaultSummaryTokens,
	}
}

type Worker struct {
	config Config

	rdb         *redis.Client
	asynqServer *asynq.Server

	transport transport.Transport
	index     vector.Index
}

func New(config Config) *Worker {
	return &Worker{config: config}
}

func (w *Worker) Start() error {
	model, err := remote.New(w.config.ModelEndpoint)
	if err != nil {
		return fmt.Errorf("failed to connect to model server: %w", err)
	}

	conv, err := llm.NewConvention(w.config.Convention)
	if err != nil {
		return err
	}

	embedder, err := provider.NewEmbedder(w.config.Embedder, model, conv)
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %w", err)
	}

	generator, err := provider.NewGenerator(w.config.Generator, model, conv)
	if err != nil {
		return fmt.Errorf("failed to initialize generator: %w", err)
	}

	index, err := vector.NewIndex(w.config.Index, vector.IndexParams{
		Collection: w.config.Collection,
		Dimensions: uint(embedder.Dimensions()),
		Host:       w.config.QdrantHost,
		Port:       w.config.QdrantPort,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize vector index: %w", err)
	}
	w.index = index
	defer w.index.Close()

	budget := model.Config().MaxPositionEmbeddings - w.config.ReservedMargin
	chunker := chunk.NewChunker(chunk.NewRegexSplitter(), llm.NewTokenCounter(model))

	opts := []rag.StoreOption{
		rag.WithTopK(w.config.TopK),
		rag.WithSummaryTokens(w.config.SummaryTokens),
		rag.WithSummarizer(summary.New(generator)),
	}
	if w.config.Reranker != "" {
		reranker, err := provider.NewReranker(w.config.Reranker)
		if err != nil {
			return fmt.Errorf("failed to initialize reranker: %w", err)
		}
		opts = append(opts, rag.WithReranker(reranker))
	}

	store := rag.NewStore(chunker, embedder, index, budget, opts...)
	answerer := rag.NewAnswerer(store, generator)

	w.rdb = redis.NewClient(&redis.Options{
		Addr:     w.config.RedisAddr,
		Username: w.config.RedisUsername,
		Password: w.config.RedisPassword,
		DB:       w.config.RedisDB,
	})
	defer w.rdb.Close()

	w.asynqServer = asynq.NewServerFromRedisClient(
		w.rdb,
		asynq.Config{
			Concurrency: w.config.Concurrency,
		},
	)
	w.transport = transport.NewRedisTransport(w.rdb)

	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeIngest, tasks.NewIngestTaskHandler(store, w.transport))
	mux.Handle(tasks.TypeAsk, tasks.NewAskTaskHandler(answerer, w.transport))

	slog.Info("worker starting",
		"convention", conv.Name(),
		"embedder", w.config.Embedder,
		"generator", w.config.Generator,
		"index", w.config.Index,
		"budget", budget,
	)
	return w.asynqServer.Run(mux)
}
