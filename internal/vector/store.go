// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package vector

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidStoreType      = errors.New("no vector store found for given type")
	ErrFailedStoreInitialize = errors.New("failed to initialise vector store")
)

const (
	StoreTypeQdrant = iota
)

var storeTypeMap = map[string]StoreType{
	"qdrant": StoreTypeQdrant,
}

type StoreType int

// Store writes embedding vectors into named collections.
type Store interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, collection Collection) error

	Upsert(ctx context.Context, collectionName string, points []*Point) error

	Close() error
}

// StoreConfig carries connection settings shared by all store types.
type StoreConfig struct {
	Host string
	Port int
}

func NewStore(storeName string, config StoreConfig) (Store, error) {
	storeType, ok := storeTypeMap[storeName]
	if !ok {
		return nil, ErrInvalidStoreType
	}

	switch storeType {
	case StoreTypeQdrant:
		store, err := NewQdrantStore(config.Host, config.Port)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFailedStoreInitialize, err)
		}

		return store, nil
	default:
		return nil, ErrInvalidStoreType
	}
}

type Collection struct {
	Name       string
	Dimensions uint64
}

type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// PointsFromChunks pairs each chunk with its vector and assigns a fresh
// uuid per point. Chunks and vectors must line up positionally; the
// returned ids follow the same order.
func PointsFromChunks(documentID, sector string, chunks []string, vectors [][]float32) ([]*Point, []string) {
	points := make([]*Point, 0, len(chunks))
	ids := make([]string, 0, len(chunks))

	for i := range chunks {
		id := uuid.NewString()
		points = append(points, &Point{
			ID:     id,
			Vector: vectors[i],
			Payload: map[string]any{
				"text":        chunks[i],
				"document_id": documentID,
				"sector":      sector,
				"chunk_index": i,
			},
		})
		ids = append(ids, id)
	}

	return points, ids
}
