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

// Package pipeline runs documents through the ingestion stages:
// download, extract, chunk, embed and persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alan-mat/dip/internal/api"
	"github.com/alan-mat/dip/internal/blob"
	"github.com/alan-mat/dip/internal/chunk"
	"github.com/alan-mat/dip/internal/config"
	"github.com/alan-mat/dip/internal/docstore"
	"github.com/alan-mat/dip/internal/extract"
	"github.com/alan-mat/dip/internal/provider"
	"github.com/alan-mat/dip/internal/vector"
)

var ErrNoChunks = errors.New("chunking produced no chunks")

// UnknownSectorError reports a request for a sector outside the
// configured sector map.
type UnknownSectorError struct {
	Sector    string
	Available []string
}

func (e UnknownSectorError) Error() string {
	return fmt.Sprintf("unknown sector '%s', available sectors: %s",
		e.Sector, strings.Join(e.Available, ", "))
}

// DimensionMismatchError reports a sector whose vector dimensionality
// does not match what the configured embedder produces. Letting such a
// run proceed would pair a collection of one size with vectors of
// another, which the vector store rejects at upsert time.
type DimensionMismatchError struct {
	Sector       string
	SectorDims   uint64
	EmbedderDims int
}

func (e DimensionMismatchError) Error() string {
	return fmt.Sprintf("sector '%s' stores %d-dimensional vectors but the embedder produces %d",
		e.Sector, e.SectorDims, e.EmbedderDims)
}

// Processor runs a document through the full ingestion pipeline.
type Processor interface {
	Process(ctx context.Context, req api.ProcessRequest, mws ...Middleware) (*Result, error)
}

// Result summarises a completed processing run.
type Result struct {
	ChunkCount int
	VectorIDs  []string
	TaskType   string
}

type Pipeline struct {
	blobs    blob.Store
	docs     docstore.Store
	vectors  vector.Store
	embedder provider.Embedder
	sectors  config.SectorMap

	defaultStrategy string
	defaultOptions  map[string]any
	middleware      []Middleware
}

var _ Processor = (*Pipeline)(nil)

type Option func(*Pipeline)

// WithDefaultStrategy sets the chunking strategy used by requests
// that do not name one.
func WithDefaultStrategy(strategy string) Option {
	return func(p *Pipeline) {
		p.defaultStrategy = strategy
	}
}

// WithDefaultOptions sets the strategy options used by requests that
// do not carry their own.
func WithDefaultOptions(opts map[string]any) Option {
	return func(p *Pipeline) {
		p.defaultOptions = opts
	}
}

// WithMiddleware wraps every stage of every run with the given
// middleware, outermost first.
func WithMiddleware(mws ...Middleware) Option {
	return func(p *Pipeline) {
		p.middleware = append(p.middleware, mws...)
	}
}

func New(
	blobs blob.Store,
	docs docstore.Store,
	vectors vector.Store,
	embedder provider.Embedder,
	sectors config.SectorMap,
	options ...Option,
) *Pipeline {
	p := &Pipeline{
		blobs:           blobs,
		docs:            docs,
		vectors:         vectors,
		embedder:        embedder,
		sectors:         sectors,
		defaultStrategy: chunk.StrategyFixedSize,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Process runs one document through every stage in order. Stage
// failures abort the run and are returned as a StageError. Per-call
// middleware runs inside the middleware the pipeline was built with.
func (p *Pipeline) Process(ctx context.Context, req api.ProcessRequest, mws ...Middleware) (*Result, error) {
	sector, ok := p.sectors.Get(req.Sector)
	if !ok {
		return nil, UnknownSectorError{Sector: req.Sector, Available: p.sectors.Names()}
	}

	if int(sector.Dimensions) != p.embedder.Dimensions() {
		return nil, DimensionMismatchError{
			Sector:       req.Sector,
			SectorDims:   sector.Dimensions,
			EmbedderDims: p.embedder.Dimensions(),
		}
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = p.defaultStrategy
	}

	options := req.Options
	if len(options) == 0 {
		options = p.defaultOptions
	}

	state := &State{
		DocumentID:     req.DocumentID,
		Sector:         req.Sector,
		BlobPath:       req.BlobPath,
		Strategy:       strategy,
		Options:        options,
		TaskType:       provider.NormalizeTaskType(req.EmbeddingTaskType),
		ObjectKey:      blob.ParseObjectKey(req.BlobPath, p.sectors.Names()),
		CollectionName: sector.Collection,
		Dimensions:     sector.Dimensions,
	}

	defer func() {
		if state.LocalPath == "" {
			return
		}
		if err := os.Remove(state.LocalPath); err != nil {
			slog.Warn("failed to remove downloaded file",
				"path", state.LocalPath, "err", err)
		}
	}()

	slog.Info("processing document",
		"documentId", state.DocumentID, "sector", state.Sector,
		"strategy", state.Strategy, "taskType", state.TaskType)

	allMws := make([]Middleware, 0, len(p.middleware)+len(mws))
	allMws = append(allMws, p.middleware...)
	allMws = append(allMws, mws...)

	for _, stage := range p.stages() {
		wrapped := stage
		for i := len(allMws) - 1; i >= 0; i-- {
			wrapped = allMws[i](wrapped)
		}

		if err := wrapped.Run(ctx, state); err != nil {
			return nil, StageError{Stage: stage.Name, Err: err}
		}
	}

	return &Result{
		ChunkCount: len(state.Chunks),
		VectorIDs:  state.VectorIDs,
		TaskType:   state.TaskType,
	}, nil
}

func (p *Pipeline) stages() []Stage {
	return []Stage{
		{Name: "download", Run: p.download},
		{Name: "extract", Run: p.extractText},
		{Name: "chunk", Run: p.splitText},
		{Name: "embed", Run: p.embedChunks},
		{Name: "persist", Run: p.persist},
	}
}

func (p *Pipeline) download(ctx context.Context, s *State) error {
	path, err := p.blobs.Download(ctx, s.ObjectKey)
	if err != nil {
		return err
	}
	s.LocalPath = path
	return nil
}

func (p *Pipeline) extractText(ctx context.Context, s *State) error {
	text, err := extract.Text(ctx, s.LocalPath)
	if err != nil {
		return err
	}
	s.Text = text
	return nil
}

func (p *Pipeline) splitText(ctx context.Context, s *State) error {
	chunks, err := chunk.Split(s.Text, s.Strategy, s.Options)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return ErrNoChunks
	}
	s.Chunks = chunks
	return nil
}

func (p *Pipeline) embedChunks(ctx context.Context, s *State) error {
	vectors, err := provider.EmbedAll(ctx, p.embedder, s.Chunks, s.TaskType)
	if err != nil {
		return err
	}
	s.Vectors = vectors
	return nil
}

func (p *Pipeline) persist(ctx context.Context, s *State) error {
	// Chunk records and vector points pair positionally.
	if len(s.Chunks) != len(s.Vectors) {
		return fmt.Errorf("have %d chunks but %d vectors", len(s.Chunks), len(s.Vectors))
	}

	exists, err := p.vectors.CollectionExists(ctx, s.CollectionName)
	if err != nil {
		return err
	}
	if !exists {
		err := p.vectors.CreateCollection(ctx, vector.Collection{
			Name:       s.CollectionName,
			Dimensions: s.Dimensions,
		})
		if err != nil {
			return err
		}
		slog.Info("created vector collection",
			"collection", s.CollectionName, "dimensions", s.Dimensions)
	}

	points, ids := vector.PointsFromChunks(s.DocumentID, s.Sector, s.Chunks, s.Vectors)
	if err := p.vectors.Upsert(ctx, s.CollectionName, points); err != nil {
		return err
	}
	s.VectorIDs = ids

	now := time.Now().UTC()
	recs := make([]*api.ChunkRecord, 0, len(s.Chunks))
	for i, text := range s.Chunks {
		recs = append(recs, &api.ChunkRecord{
			Text:       text,
			VectorID:   ids[i],
			DocumentID: s.DocumentID,
			Sector:     s.Sector,
			ChunkIndex: i,
			CreatedAt:  now,
		})
	}

	rec := &api.DocumentRecord{
		DocumentID: s.DocumentID,
		Sector:     s.Sector,
		ChunkCount: len(recs),
		CreatedAt:  now,
		Meta: api.DocumentMeta{
			OriginalBlobPath:  s.BlobPath,
			Strategy:          s.Strategy,
			Options:           s.Options,
			EmbeddingTaskType: s.TaskType,
		},
	}
	if err := p.docs.PutDocument(ctx, rec); err != nil {
		return err
	}

	return p.docs.PutChunks(ctx, recs)
}
