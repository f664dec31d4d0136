package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alan-mat/dip/internal/api"
	"github.com/alan-mat/dip/internal/pipeline"
	"github.com/alan-mat/dip/internal/transport"
	"github.com/hibiken/asynq"
)

// IngestHandler processes queued ingestion tasks. Every task gets a
// request trace keyed by its task id, stage progress is published to
// the message stream under the same id.
type IngestHandler struct {
	transport transport.Transport
	proc      pipeline.Processor
}

func NewIngestHandler(transport transport.Transport, proc pipeline.Processor) *IngestHandler {
	return &IngestHandler{
		transport: transport,
		proc:      proc,
	}
}

func (h IngestHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if t.Type() != TypeIngest {
		return fmt.Errorf("unrecognized task type (%w)", asynq.SkipRetry)
	}

	var p ingestTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to decode task payload: %v (%w)", err, asynq.SkipRetry)
	}
	slog.Info("received ingest task",
		"documentId", p.DocumentID, "sector", p.Sector, "blobPath", p.BlobPath)

	id := t.ResultWriter().TaskID()
	slog.Info("task id", "id", id)

	return h.process(ctx, id, p)
}

func (h IngestHandler) process(ctx context.Context, id string, p ingestTaskPayload) error {
	ms, err := h.transport.GetMessageStream(id)
	if err != nil {
		slog.Error("failed to initialize message stream", "err", err)
		return fmt.Errorf("failed to initialize message stream: %v (%w)", err, asynq.SkipRetry)
	}

	trace := transport.NewTrace(id, p.DocumentID, p.Sector)
	err = h.transport.SetTrace(ctx, trace)
	if err != nil {
		slog.Error("failed to set trace", "id", id, "err", err)
	}

	req := api.ProcessRequest{
		DocumentID:        p.DocumentID,
		BlobPath:          p.BlobPath,
		Sector:            p.Sector,
		Strategy:          p.Strategy,
		Options:           p.Options,
		EmbeddingTaskType: p.EmbeddingTaskType,
	}

	res, err := h.proc.Process(ctx, req, pipeline.TransportMiddleware(ms))
	if err != nil {
		ms.Send(ctx, transport.MessageStreamPayload{
			Message: "document processing failed",
			Status:  "ERR",
		})

		trace.Fail(err)
		if terr := h.transport.SetTrace(ctx, trace); terr != nil {
			slog.Error("failed to set trace", "id", id, "err", terr)
		}

		return fmt.Errorf("document processing failed: %v (%w)", err, asynq.SkipRetry)
	}

	err = ms.Send(ctx, transport.MessageStreamPayload{
		Message: "task finished",
		Status:  "DONE",
	})
	if err != nil {
		slog.Warn("failed to write DONE message to stream", "id", id)
	}

	trace.Complete(res.ChunkCount)
	err = h.transport.SetTrace(ctx, trace)
	if err != nil {
		slog.Error("failed to set trace", "id", id, "err", err)
	}

	slog.Info("ingest task complete",
		"id", id, "documentId", p.DocumentID, "chunkCount", res.ChunkCount)
	return nil
}
