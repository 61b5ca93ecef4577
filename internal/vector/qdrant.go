package vector

import (
	"context"
	"log/slog"

	"github.com/alan-mat/tome/internal/api"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantIndex is an [Index] backed by a qdrant collection with cosine
// distance, for deployments that want the store to outlive the process.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	waitUpsert bool
}

func NewQdrantIndex(host string, port int, collection string, dims uint) (*QdrantIndex, error) {
	c, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, err
	}

	idx := &QdrantIndex{
		client:     c,
		collection: collection,
		waitUpsert: true,
	}

	if err := idx.ensureCollection(context.Background(), dims); err != nil {
		return nil, err
	}
	return idx, nil
}

func NewQdrantIndexDefault(collection string, dims uint) (*QdrantIndex, error) {
	return NewQdrantIndex("localhost", 6334, collection, dims)
}

func (idx *QdrantIndex) ensureCollection(ctx context.Context, dims uint) error {
	exists, err := idx.client.CollectionExists(ctx, idx.collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	slog.Info("creating collection", "name", idx.collection, "dimensions", dims)
	return idx.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: idx.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dims),
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (idx *QdrantIndex) Append(ctx context.Context, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return ErrLengthMismatch
	}

	points := make([]*qdrant.PointStruct, 0, len(texts))
	for i, text := range texts {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuid.NewString()),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"text": text,
			}),
		})
	}

	_, err := idx.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: idx.collection,
		Wait:           &idx.waitUpsert,
		Points:         points,
	})
	return err
}

func (idx *QdrantIndex) Search(ctx context.Context, vector []float32, k int) ([]*api.ScoredChunk, error) {
	limit := uint64(k)
	res, err := idx.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: idx.collection,
		Query:          qdrant.NewQuery(vector...),
		WithPayload:    qdrant.NewWithPayload(true),
		Limit:          &limit,
	})
	if err != nil {
		return nil, err
	}

	scored := make([]*api.ScoredChunk, 0, len(res))
	for _, sp := range res {
		text := sp.Payload["text"].GetStringValue()
		if text == "" {
			slog.Warn("malformed point: missing 'text' field in payload", "id", sp.Id.GetUuid())
			continue
		}

		scored = append(scored, &api.ScoredChunk{
			Text:  text,
			Score: float64(sp.Score),
		})
	}

	return scored, nil
}

func (idx *QdrantIndex) Len(ctx context.Context) (int, error) {
	count, err := idx.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: idx.collection,
	})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (idx *QdrantIndex) Close() error {
	return idx.client.Close()
}
