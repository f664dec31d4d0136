// Package docstore persists chunk and document records in DynamoDB.
//
// Table layout: one partition per document, chunk items sorted by a
// zero padded chunk index, plus a single metadata item.
//
//	PK = SECTOR#{sector}#DOC#{document_id}
//	SK = CHUNK#{index:06d} | META
//
// Chunk lookups by vector id go through the "vector_id-index" global
// secondary index.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/alan-mat/dip/internal/api"
)

// maxBatchWriteItems is the BatchWriteItem request limit imposed by
// DynamoDB.
const maxBatchWriteItems = 25

// maxBatchRetries bounds resubmission of unprocessed items.
const maxBatchRetries = 3

const vectorIndexName = "vector_id-index"

var (
	ErrChunkNotFound    = errors.New("chunk does not exist")
	ErrDocumentNotFound = errors.New("document does not exist")
)

// Store reads and writes processed document records.
type Store interface {
	PutDocument(ctx context.Context, rec *api.DocumentRecord) error
	PutChunks(ctx context.Context, recs []*api.ChunkRecord) error
	GetChunkByVectorID(ctx context.Context, sector, vectorID string) (*api.ChunkRecord, error)
	ListDocumentChunks(ctx context.Context, sector, documentID string) ([]*api.ChunkRecord, error)
}

// DDBClient captures the DynamoDB operations the store depends on.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoStore implements Store on a single DynamoDB table.
type DynamoStore struct {
	client DDBClient
	table  string
}

var _ Store = (*DynamoStore)(nil)

func NewDynamoStore(ctx context.Context, table string) (*DynamoStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewDynamoStoreWithClient(dynamodb.NewFromConfig(cfg), table), nil
}

func NewDynamoStoreWithClient(client DDBClient, table string) *DynamoStore {
	return &DynamoStore{
		client: client,
		table:  table,
	}
}

func (s *DynamoStore) PutDocument(ctx context.Context, rec *api.DocumentRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal document record: %w", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: documentPK(rec.Sector, rec.DocumentID)}
	item["SK"] = &types.AttributeValueMemberS{Value: "META"}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put document record: %w", err)
	}
	return nil
}

// PutChunks writes chunk records in batches of maxBatchWriteItems,
// resubmitting any unprocessed items.
func (s *DynamoStore) PutChunks(ctx context.Context, recs []*api.ChunkRecord) error {
	requests := make([]types.WriteRequest, 0, len(recs))
	for _, rec := range recs {
		item, err := attributevalue.MarshalMap(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal chunk record: %w", err)
		}
		item["PK"] = &types.AttributeValueMemberS{Value: documentPK(rec.Sector, rec.DocumentID)}
		item["SK"] = &types.AttributeValueMemberS{Value: chunkSK(rec.ChunkIndex)}

		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	for start := 0; start < len(requests); start += maxBatchWriteItems {
		end := min(start+maxBatchWriteItems, len(requests))
		if err := s.writeBatch(ctx, requests[start:end]); err != nil {
			return err
		}
		slog.Debug("wrote chunk batch", "table", s.table, "count", end-start)
	}
	return nil
}

func (s *DynamoStore) writeBatch(ctx context.Context, batch []types.WriteRequest) error {
	pending := batch
	for attempt := 0; len(pending) > 0; attempt++ {
		if attempt > maxBatchRetries {
			return fmt.Errorf("batch write left %d unprocessed items after %d attempts", len(pending), attempt)
		}

		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.table: pending,
			},
		})
		if err != nil {
			return fmt.Errorf("batch write failed: %w", err)
		}

		pending = out.UnprocessedItems[s.table]
	}
	return nil
}

func (s *DynamoStore) GetChunkByVectorID(ctx context.Context, sector, vectorID string) (*api.ChunkRecord, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(vectorIndexName),
		KeyConditionExpression: aws.String("vector_id = :vid"),
		FilterExpression:       aws.String("sector = :sector"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":vid":    &types.AttributeValueMemberS{Value: vectorID},
			":sector": &types.AttributeValueMemberS{Value: sector},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query vector index: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, ErrChunkNotFound
	}

	var rec api.ChunkRecord
	if err := attributevalue.UnmarshalMap(out.Items[0], &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chunk record: %w", err)
	}
	return &rec, nil
}

// ListDocumentChunks returns every chunk of a document in chunk index
// order.
func (s *DynamoStore) ListDocumentChunks(ctx context.Context, sector, documentID string) ([]*api.ChunkRecord, error) {
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: documentPK(sector, documentID)},
			":prefix": &types.AttributeValueMemberS{Value: "CHUNK#"},
		},
	})

	var recs []*api.ChunkRecord
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query document chunks: %w", err)
		}
		for _, item := range page.Items {
			var rec api.ChunkRecord
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				return nil, fmt.Errorf("failed to unmarshal chunk record: %w", err)
			}
			recs = append(recs, &rec)
		}
	}

	if len(recs) == 0 {
		return nil, ErrDocumentNotFound
	}
	return recs, nil
}

func documentPK(sector, documentID string) string {
	return fmt.Sprintf("SECTOR#%s#DOC#%s", sector, documentID)
}

func chunkSK(index int) string {
	return fmt.Sprintf("CHUNK#%06d", index)
}
