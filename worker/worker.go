package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/alan-mat/dip/internal/blob"
	"github.com/alan-mat/dip/internal/config"
	"github.com/alan-mat/dip/internal/docstore"
	"github.com/alan-mat/dip/internal/pipeline"
	"github.com/alan-mat/dip/internal/provider"
	"github.com/alan-mat/dip/internal/tasks"
	"github.com/alan-mat/dip/internal/transport"
	"github.com/alan-mat/dip/internal/vector"
)

// Worker consumes ingestion tasks from the queue and runs them
// through the processing pipeline.
type Worker struct {
	config *config.Config

	rdb         *redis.Client
	asynqServer *asynq.Server

	transport   transport.Transport
	vectorStore vector.Store
}

func New(conf *config.Config) *Worker {
	return &Worker{
		config: conf,
	}
}

// Start assembles the pipeline dependencies and blocks consuming
// tasks until the process receives a termination signal.
func (w *Worker) Start() error {
	ctx := context.Background()

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
			Concurrency: w.config.WorkerConcurrency,
		},
	)

	w.transport = transport.NewRedisTransport(w.rdb)

	sectors, err := w.config.Sectors()
	if err != nil {
		return fmt.Errorf("failed to load sectors: %w", err)
	}

	blobs, err := blob.NewS3Store(ctx, w.config.Bucket)
	if err != nil {
		return fmt.Errorf("failed to initialize blob store: %w", err)
	}

	docs, err := docstore.NewDynamoStore(ctx, w.config.Table)
	if err != nil {
		return fmt.Errorf("failed to initialize document store: %w", err)
	}

	vs, err := vector.NewStore("qdrant", vector.StoreConfig{
		Host: w.config.QdrantHost,
		Port: w.config.QdrantPort,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}
	w.vectorStore = vs
	defer w.vectorStore.Close()

	embedder, err := provider.NewEmbedder(w.config.EmbedProvider, provider.EmbedderConfig{
		Model:      w.config.EmbedModel,
		Dimensions: w.config.EmbedDimensions,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %w", err)
	}

	proc := pipeline.New(
		blobs, docs, vs, embedder, sectors,
		pipeline.WithDefaultStrategy(w.config.DefaultStrategy),
		pipeline.WithDefaultOptions(map[string]any{
			"chunk_size": w.config.ChunkSize,
			"overlap":    w.config.ChunkOverlap,
		}),
		pipeline.WithMiddleware(pipeline.LoggingMiddleware()),
	)

	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeIngest, tasks.NewIngestHandler(w.transport, proc))

	slog.Info("worker starting", "concurrency", w.config.WorkerConcurrency)
	if err := w.asynqServer.Run(mux); err != nil {
		return err
	}
	return nil
}
