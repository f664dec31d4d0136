package vector

import (
	"context"

	"github.com/qdrant/go-client/qdrant"
)

// upsertBatchSize bounds how many points are sent per upsert call.
const upsertBatchSize = 128

// QdrantStore implements Store on a qdrant instance reached over grpc.
type QdrantStore struct {
	client     *qdrant.Client
	waitUpsert bool
}

func NewQdrantStore(host string, port int) (*QdrantStore, error) {
	c, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, err
	}

	return &QdrantStore{
		client:     c,
		waitUpsert: true,
	}, nil
}

func (s QdrantStore) CollectionExists(ctx context.Context, collectionName string) (bool, error) {
	return s.client.CollectionExists(ctx, collectionName)
}

// CreateCollection provisions a cosine distance collection sized for
// the sector's embedding dimensionality.
func (s QdrantStore) CreateCollection(ctx context.Context, collection Collection) error {
	return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     collection.Dimensions,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

// Upsert writes points in batches of upsertBatchSize, waiting for each
// batch to be applied before sending the next.
func (s QdrantStore) Upsert(ctx context.Context, collectionName string, points []*Point) error {
	for start := 0; start < len(points); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(points))

		batch := make([]*qdrant.PointStruct, 0, end-start)
		for _, point := range points[start:end] {
			batch = append(batch, &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(point.ID),
				Vectors: qdrant.NewVectors(point.Vector...),
				Payload: qdrant.NewValueMap(point.Payload),
			})
		}

		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collectionName,
			Wait:           &s.waitUpsert,
			Points:         batch,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (s QdrantStore) Close() error {
	return s.client.Close()
}
