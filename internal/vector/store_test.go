package vector_test

import (
	"errors"
	"testing"

	"github.com/alan-mat/dip/internal/vector"
)

func TestPointsFromChunks(t *testing.T) {
	chunks := []string{"alpha", "beta", "gamma"}
	vectors := [][]float32{
		{0.1, 0.2},
		{0.3, 0.4},
		{0.5, 0.6},
	}

	points, ids := vector.PointsFromChunks("doc-1", "legal", chunks, vectors)

	if len(points) != 3 || len(ids) != 3 {
		t.Fatalf("got %d points and %d ids, expected 3 of each", len(points), len(ids))
	}

	seen := make(map[string]bool)
	for i, p := range points {
		if p.ID != ids[i] {
			t.Errorf("point %d: id '%s' does not match returned id '%s'", i, p.ID, ids[i])
		}
		if seen[p.ID] {
			t.Errorf("duplicate point id '%s'", p.ID)
		}
		seen[p.ID] = true

		if p.Payload["text"] != chunks[i] {
			t.Errorf("point %d: got payload text '%v', expected '%s'", i, p.Payload["text"], chunks[i])
		}
		if p.Payload["chunk_index"] != i {
			t.Errorf("point %d: got chunk index %v", i, p.Payload["chunk_index"])
		}
		if p.Payload["document_id"] != "doc-1" || p.Payload["sector"] != "legal" {
			t.Errorf("point %d: unexpected payload %v", i, p.Payload)
		}
		if len(p.Vector) != 2 || p.Vector[0] != vectors[i][0] {
			t.Errorf("point %d: vector not paired positionally", i)
		}
	}
}

func TestNewStoreInvalidType(t *testing.T) {
	_, err := vector.NewStore("chroma", vector.StoreConfig{Host: "localhost", Port: 6334})
	if !errors.Is(err, vector.ErrInvalidStoreType) {
		t.Errorf("got %v, expected ErrInvalidStoreType", err)
	}
}
