package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/alan-mat/dip/internal/blob"
	"github.com/alan-mat/dip/internal/config"
	"github.com/alan-mat/dip/internal/docstore"
	"github.com/alan-mat/dip/internal/pipeline"
	"github.com/alan-mat/dip/internal/provider"
	"github.com/alan-mat/dip/internal/transport"
	"github.com/alan-mat/dip/internal/vector"
)

const shutdownTimeout = 10 * time.Second

// TaskClient enqueues background tasks. Satisfied by *asynq.Client.
type TaskClient interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Server exposes the document ingestion pipeline over HTTP.
type Server struct {
	config *config.Config

	rdb *redis.Client

	transport  transport.Transport
	taskClient TaskClient
	proc       pipeline.Processor
	blobs      blob.Store
	docs       docstore.Store
	sectors    config.SectorMap
}

type Option func(*Server)

func WithTransport(t transport.Transport) Option {
	return func(s *Server) {
		s.transport = t
	}
}

func WithTaskClient(c TaskClient) Option {
	return func(s *Server) {
		s.taskClient = c
	}
}

func WithProcessor(p pipeline.Processor) Option {
	return func(s *Server) {
		s.proc = p
	}
}

func WithBlobStore(b blob.Store) Option {
	return func(s *Server) {
		s.blobs = b
	}
}

func WithDocumentStore(d docstore.Store) Option {
	return func(s *Server) {
		s.docs = d
	}
}

func WithSectors(m config.SectorMap) Option {
	return func(s *Server) {
		s.sectors = m
	}
}

// New creates a Server. Dependencies left unset are assembled from the
// config when Serve runs.
func New(conf *config.Config, opts ...Option) *Server {
	s := &Server{
		config: conf,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/documents/process", s.handleProcessDocument)
	mux.HandleFunc("POST /v1/documents", s.handleIngestDocument)
	mux.HandleFunc("GET /v1/traces/{id}", s.handleGetTrace)
	mux.HandleFunc("GET /v1/traces/{id}/stream", s.handleStreamTrace)
	mux.HandleFunc("GET /v1/sectors", s.handleListSectors)
	mux.HandleFunc("GET /v1/chunks/{vectorID}", s.handleGetChunk)
	mux.HandleFunc("GET /v1/documents/{documentID}/chunks", s.handleListDocumentChunks)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return corsMiddleware(mux)
}

// Serve assembles any missing dependencies and runs the HTTP server
// until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.rdb = redis.NewClient(&redis.Options{
		Addr:     s.config.RedisAddr,
		Username: s.config.RedisUsername,
		Password: s.config.RedisPassword,
		DB:       s.config.RedisDB,
	})
	defer s.rdb.Close()

	if s.transport == nil {
		s.transport = transport.NewRedisTransport(s.rdb)
	}

	if s.taskClient == nil {
		client := asynq.NewClientFromRedisClient(s.rdb)
		defer client.Close()
		s.taskClient = client
	}

	if s.sectors == nil {
		sectors, err := s.config.Sectors()
		if err != nil {
			return err
		}
		s.sectors = sectors
	}

	if s.blobs == nil {
		blobs, err := blob.NewS3Store(ctx, s.config.Bucket)
		if err != nil {
			return err
		}
		s.blobs = blobs
	}

	if s.docs == nil {
		docs, err := docstore.NewDynamoStore(ctx, s.config.Table)
		if err != nil {
			return err
		}
		s.docs = docs
	}

	if s.proc == nil {
		vectors, err := vector.NewStore("qdrant", vector.StoreConfig{
			Host: s.config.QdrantHost,
			Port: s.config.QdrantPort,
		})
		if err != nil {
			return err
		}
		defer vectors.Close()

		embedder, err := provider.NewEmbedder(s.config.EmbedProvider, provider.EmbedderConfig{
			Model:      s.config.EmbedModel,
			Dimensions: s.config.EmbedDimensions,
		})
		if err != nil {
			return err
		}

		s.proc = pipeline.New(
			s.blobs, s.docs, vectors, embedder, s.sectors,
			pipeline.WithDefaultStrategy(s.config.DefaultStrategy),
			pipeline.WithDefaultOptions(map[string]any{
				"chunk_size": s.config.ChunkSize,
				"overlap":    s.config.ChunkOverlap,
			}),
			pipeline.WithMiddleware(pipeline.LoggingMiddleware()),
		)
	}

	httpServer := &http.Server{
		Addr:    s.config.ListenAddr,
		Handler: s.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "listener", s.config.ListenAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("server shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(sctx)
	})

	return g.Wait()
}
