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

package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/alan-mat/dip/internal/api"
	"github.com/alan-mat/dip/internal/blob"
	"github.com/alan-mat/dip/internal/chunk"
	"github.com/alan-mat/dip/internal/config"
	"github.com/alan-mat/dip/internal/docstore"
	"github.com/alan-mat/dip/internal/pipeline"
	"github.com/alan-mat/dip/internal/vector"
)

type fakeBlobStore struct {
	dir     string
	content string
	err     error
	keys    []string
}

func (f *fakeBlobStore) Download(ctx context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)

	file, err := os.CreateTemp(f.dir, "doc-*.txt")
	if err != nil {
		return "", err
	}
	defer file.Close()
	if _, err := file.WriteString(f.content); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func (f *fakeBlobStore) Upload(ctx context.Context, key string, r io.Reader) error {
	return nil
}

type fakeDocStore struct {
	docs   []*api.DocumentRecord
	chunks []*api.ChunkRecord
}

func (f *fakeDocStore) PutDocument(ctx context.Context, rec *api.DocumentRecord) error {
	f.docs = append(f.docs, rec)
	return nil
}

func (f *fakeDocStore) PutChunks(ctx context.Context, recs []*api.ChunkRecord) error {
	f.chunks = append(f.chunks, recs...)
	return nil
}

func (f *fakeDocStore) GetChunkByVectorID(ctx context.Context, sector, vectorID string) (*api.ChunkRecord, error) {
	for _, rec := range f.chunks {
		if rec.Sector == sector && rec.VectorID == vectorID {
			return rec, nil
		}
	}
	return nil, docstore.ErrChunkNotFound
}

func (f *fakeDocStore) ListDocumentChunks(ctx context.Context, sector, documentID string) ([]*api.ChunkRecord, error) {
	var recs []*api.ChunkRecord
	for _, rec := range f.chunks {
		if rec.Sector == sector && rec.DocumentID == documentID {
			recs = append(recs, rec)
		}
	}
	if len(recs) == 0 {
		return nil, docstore.ErrDocumentNotFound
	}
	return recs, nil
}

type fakeVectorStore struct {
	exists   bool
	created  []vector.Collection
	upserted map[string][]*vector.Point
}

func (f *fakeVectorStore) CollectionExists(ctx context.Context, collectionName string) (bool, error) {
	return f.exists, nil
}

func (f *fakeVectorStore) CreateCollection(ctx context.Context, collection vector.Collection) error {
	f.created = append(f.created, collection)
	return nil
}

func (f *fakeVectorStore) Upsert(ctx context.Context, collectionName string, points []*vector.Point) error {
	if f.upserted == nil {
		f.upserted = make(map[string][]*vector.Point)
	}
	f.upserted[collectionName] = append(f.upserted[collectionName], points...)
	return nil
}

func (f *fakeVectorStore) Close() error {
	return nil
}

type fakeEmbedder struct {
	dims    int
	failAll bool
	calls   int
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string, taskType string) ([]float32, error) {
	f.calls += 1
	if f.failAll {
		return nil, errors.New("embedding api unavailable")
	}
	v := make([]float32, f.dims)
	for i := range v {
		v[i] = float32(f.calls)
	}
	return v, nil
}

func (f *fakeEmbedder) Dimensions() int {
	return f.dims
}

const testContent = "First paragraph about embedding models and their uses.\n\n" +
	"Second paragraph about vector stores and retrieval quality."

type testPipeline struct {
	blobs    *fakeBlobStore
	docs     *fakeDocStore
	vectors  *fakeVectorStore
	embedder *fakeEmbedder
	proc     *pipeline.Pipeline
}

func newTestPipeline(t *testing.T, options ...pipeline.Option) *testPipeline {
	t.Helper()
	tp := &testPipeline{
		blobs:    &fakeBlobStore{dir: t.TempDir(), content: testContent},
		docs:     &fakeDocStore{},
		vectors:  &fakeVectorStore{},
		embedder: &fakeEmbedder{dims: 4},
	}
	sectors := config.DefaultSectors([]string{"hr", "legal"}, 4)
	tp.proc = pipeline.New(tp.blobs, tp.docs, tp.vectors, tp.embedder, sectors, options...)
	return tp
}

func semanticRequest() api.ProcessRequest {
	return api.ProcessRequest{
		DocumentID: "doc-1",
		BlobPath:   "s3://bucket/legal/doc-1.txt",
		Sector:     "legal",
		Strategy:   "semantic",
		Options:    map[string]any{"max_chunk_size": 40},
	}
}

func TestProcess(t *testing.T) {
	tp := newTestPipeline(t)

	res, err := tp.proc.Process(context.Background(), semanticRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if res.ChunkCount < 2 {
		t.Fatalf("got %d chunks, expected at least 2", res.ChunkCount)
	}
	if len(res.VectorIDs) != res.ChunkCount {
		t.Fatalf("got %d vector ids, expected %d", len(res.VectorIDs), res.ChunkCount)
	}
	if res.TaskType != "RETRIEVAL_DOCUMENT" {
		t.Errorf("got task type %q, expected RETRIEVAL_DOCUMENT", res.TaskType)
	}

	// bucket segment dropped, sector prefix kept
	if len(tp.blobs.keys) != 1 || tp.blobs.keys[0] != "legal/doc-1.txt" {
		t.Errorf("got object keys %v, expected [legal/doc-1.txt]", tp.blobs.keys)
	}

	// collection was missing and had to be created
	if len(tp.vectors.created) != 1 {
		t.Fatalf("got %d created collections, expected 1", len(tp.vectors.created))
	}
	created := tp.vectors.created[0]
	if created.Name != "legal-index" {
		t.Errorf("got collection %q, expected %q", created.Name, "legal-index")
	}
	if created.Dimensions != 4 {
		t.Errorf("got dimensions %d, expected 4", created.Dimensions)
	}

	points := tp.vectors.upserted["legal-index"]
	if len(points) != res.ChunkCount {
		t.Fatalf("got %d upserted points, expected %d", len(points), res.ChunkCount)
	}

	if len(tp.docs.docs) != 1 {
		t.Fatalf("got %d document records, expected 1", len(tp.docs.docs))
	}
	rec := tp.docs.docs[0]
	if rec.DocumentID != "doc-1" || rec.Sector != "legal" {
		t.Errorf("unexpected document record: %+v", rec)
	}
	if rec.ChunkCount != res.ChunkCount {
		t.Errorf("got record chunk count %d, expected %d", rec.ChunkCount, res.ChunkCount)
	}
	if rec.Meta.OriginalBlobPath != "s3://bucket/legal/doc-1.txt" {
		t.Errorf("got original blob path %q, expected request path", rec.Meta.OriginalBlobPath)
	}
	if rec.Meta.Strategy != "semantic" {
		t.Errorf("got strategy %q, expected semantic", rec.Meta.Strategy)
	}

	if len(tp.docs.chunks) != res.ChunkCount {
		t.Fatalf("got %d chunk records, expected %d", len(tp.docs.chunks), res.ChunkCount)
	}
	for i, cr := range tp.docs.chunks {
		if cr.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, cr.ChunkIndex)
		}
		if cr.VectorID != res.VectorIDs[i] {
			t.Errorf("chunk %d vector id %q does not match result id %q", i, cr.VectorID, res.VectorIDs[i])
		}
	}
}

func TestProcessExistingCollection(t *testing.T) {
	tp := newTestPipeline(t)
	tp.vectors.exists = true

	_, err := tp.proc.Process(context.Background(), semanticRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(tp.vectors.created) != 0 {
		t.Errorf("got %d created collections, expected 0", len(tp.vectors.created))
	}
}

func TestProcessDefaultOptions(t *testing.T) {
	tp := newTestPipeline(t, pipeline.WithDefaultOptions(map[string]any{"max_chunk_size": 40}))

	req := semanticRequest()
	req.Options = nil
	res, err := tp.proc.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// with the semantic default of 1000 the whole document fits in
	// one chunk, so a split proves the configured options applied
	if res.ChunkCount < 2 {
		t.Errorf("got %d chunks, expected at least 2", res.ChunkCount)
	}

	if got := tp.docs.docs[0].Meta.Options["max_chunk_size"]; got != 40 {
		t.Errorf("got recorded option %v, expected 40", got)
	}
}

func TestProcessUnknownSector(t *testing.T) {
	tp := newTestPipeline(t)

	req := semanticRequest()
	req.Sector = "finance"

	_, err := tp.proc.Process(context.Background(), req)
	var sectorErr pipeline.UnknownSectorError
	if !errors.As(err, &sectorErr) {
		t.Fatalf("got %v, expected UnknownSectorError", err)
	}
	if sectorErr.Sector != "finance" {
		t.Errorf("got sector %q, expected finance", sectorErr.Sector)
	}
	if len(sectorErr.Available) != 2 {
		t.Errorf("got available %v, expected 2 sectors", sectorErr.Available)
	}
}

func TestProcessDimensionMismatch(t *testing.T) {
	tp := &testPipeline{
		blobs:    &fakeBlobStore{dir: t.TempDir(), content: testContent},
		docs:     &fakeDocStore{},
		vectors:  &fakeVectorStore{},
		embedder: &fakeEmbedder{dims: 4},
	}
	sectors := config.DefaultSectors([]string{"hr", "legal"}, 8)
	tp.proc = pipeline.New(tp.blobs, tp.docs, tp.vectors, tp.embedder, sectors)

	_, err := tp.proc.Process(context.Background(), semanticRequest())

	var dimsErr pipeline.DimensionMismatchError
	if !errors.As(err, &dimsErr) {
		t.Fatalf("got %v, expected DimensionMismatchError", err)
	}
	if dimsErr.Sector != "legal" {
		t.Errorf("got sector %q, expected legal", dimsErr.Sector)
	}
	if dimsErr.SectorDims != 8 || dimsErr.EmbedderDims != 4 {
		t.Errorf("got sector dims %d and embedder dims %d, expected 8 and 4",
			dimsErr.SectorDims, dimsErr.EmbedderDims)
	}

	// rejected before any stage ran
	if len(tp.blobs.keys) != 0 {
		t.Errorf("got downloads %v, expected none", tp.blobs.keys)
	}
}

func TestProcessDownloadFailure(t *testing.T) {
	tp := newTestPipeline(t)
	tp.blobs.err = blob.NotFoundError{Bucket: "bucket", Key: "legal/doc-1.txt"}

	_, err := tp.proc.Process(context.Background(), semanticRequest())

	var stageErr pipeline.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("got %v, expected StageError", err)
	}
	if stageErr.Stage != "download" {
		t.Errorf("got stage %q, expected download", stageErr.Stage)
	}

	var notFound blob.NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("expected wrapped NotFoundError, got %v", err)
	}
}

func TestProcessUnknownStrategy(t *testing.T) {
	tp := newTestPipeline(t)

	req := semanticRequest()
	req.Strategy = "recursive"

	_, err := tp.proc.Process(context.Background(), req)

	var stageErr pipeline.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("got %v, expected StageError", err)
	}
	if stageErr.Stage != "chunk" {
		t.Errorf("got stage %q, expected chunk", stageErr.Stage)
	}

	var unknown chunk.UnknownStrategyError
	if !errors.As(err, &unknown) {
		t.Errorf("expected wrapped UnknownStrategyError, got %v", err)
	}
}

func TestProcessEmbedFailureUsesZeroVectors(t *testing.T) {
	tp := newTestPipeline(t)
	tp.embedder.failAll = true

	res, err := tp.proc.Process(context.Background(), semanticRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.ChunkCount < 2 {
		t.Fatalf("got %d chunks, expected at least 2", res.ChunkCount)
	}

	points := tp.vectors.upserted["legal-index"]
	if len(points) != res.ChunkCount {
		t.Fatalf("got %d points, expected %d", len(points), res.ChunkCount)
	}
	for i, pt := range points {
		if len(pt.Vector) != tp.embedder.dims {
			t.Fatalf("point %d has %d dimensions, expected %d", i, len(pt.Vector), tp.embedder.dims)
		}
		for _, v := range pt.Vector {
			if v != 0 {
				t.Errorf("point %d has non-zero vector despite embed failures", i)
			}
		}
	}
}

func TestProcessInvalidTaskType(t *testing.T) {
	tp := newTestPipeline(t)

	req := semanticRequest()
	req.EmbeddingTaskType = "SUMMARIZATION"

	res, err := tp.proc.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.TaskType != "RETRIEVAL_DOCUMENT" {
		t.Errorf("got task type %q, expected fallback to RETRIEVAL_DOCUMENT", res.TaskType)
	}
	if got := tp.docs.docs[0].Meta.EmbeddingTaskType; got != "RETRIEVAL_DOCUMENT" {
		t.Errorf("got recorded task type %q, expected RETRIEVAL_DOCUMENT", got)
	}
}

func TestProcessMiddlewareOrder(t *testing.T) {
	var events []string
	record := func(label string) pipeline.Middleware {
		return func(next pipeline.Stage) pipeline.Stage {
			run := next.Run
			next.Run = func(ctx context.Context, s *pipeline.State) error {
				events = append(events, fmt.Sprintf("%s:%s", label, next.Name))
				return run(ctx, s)
			}
			return next
		}
	}

	tp := newTestPipeline(t, pipeline.WithMiddleware(record("outer")))

	_, err := tp.proc.Process(context.Background(), semanticRequest(), record("inner"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// five stages, two events each
	if len(events) != 10 {
		t.Fatalf("got %d events, expected 10", len(events))
	}
	if events[0] != "outer:download" || events[1] != "inner:download" {
		t.Errorf("got first events %v, expected pipeline middleware outside call middleware", events[:2])
	}
	if events[8] != "outer:persist" || events[9] != "inner:persist" {
		t.Errorf("got last events %v, expected persist stage last", events[8:])
	}
}
