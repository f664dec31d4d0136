package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path"

	"github.com/alan-mat/dip/internal/api"
	"github.com/alan-mat/dip/internal/pipeline"
	"github.com/alan-mat/dip/internal/tasks"
	"github.com/alan-mat/dip/internal/transport"
)

func (s *Server) handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	var req api.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Error: "No JSON data provided",
		})
		return
	}

	if req.DocumentID == "" || req.BlobPath == "" || req.Sector == "" || req.Strategy == "" {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Error: "Missing required parameters. Required: document_id, blob_path, sector, processing_strategy",
		})
		return
	}

	slog.Debug("received process request",
		"documentId", req.DocumentID, "blobPath", req.BlobPath, "sector", req.Sector)

	res, err := s.proc.Process(r.Context(), req)
	if err != nil {
		slog.Error("failed to process document", "documentId", req.DocumentID, "err", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.ProcessResponse{
		Success:           true,
		DocumentID:        req.DocumentID,
		Sector:            req.Sector,
		ChunkCount:        res.ChunkCount,
		VectorIDs:         res.VectorIDs,
		EmbeddingTaskType: res.TaskType,
	})
}

func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	var req api.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Error: "No JSON data provided",
		})
		return
	}

	blobPathMissing := req.BlobPath == "" && req.File == nil
	if req.DocumentID == "" || req.Sector == "" || req.Strategy == "" || blobPathMissing {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Error: "Missing required parameters. Required: document_id, blob_path, sector, processing_strategy",
		})
		return
	}

	if _, ok := s.sectors.Get(req.Sector); !ok {
		writeError(w, pipeline.UnknownSectorError{Sector: req.Sector, Available: s.sectors.Names()})
		return
	}

	if req.File != nil {
		if req.File.Name == "" {
			writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
				Error: "Inline file requires a name",
			})
			return
		}

		content, err := req.File.Decode()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
				Error:      "Invalid file content",
				Details:    err.Error(),
				Suggestion: "The file content must be base64 encoded.",
			})
			return
		}

		key := path.Join(req.Sector, req.DocumentID, req.File.Name)
		if err := s.blobs.Upload(r.Context(), key, bytes.NewReader(content)); err != nil {
			slog.Error("failed to upload file", "key", key, "err", err)
			writeError(w, err)
			return
		}
		slog.Info("uploaded file", "key", key, "size", len(content))

		req.BlobPath = key
	}

	t, err := tasks.NewIngestTask(req.ProcessRequest)
	if err != nil {
		slog.Error(err.Error())
		writeError(w, err)
		return
	}

	info, err := s.taskClient.Enqueue(t)
	if err != nil {
		slog.Error(err.Error())
		writeError(w, err)
		return
	}
	slog.Info("enqueued task successfully", "id", info.ID)

	writeJSON(w, http.StatusAccepted, api.IngestAccepted{TaskID: info.ID})
}

func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	trace, err := s.transport.GetTrace(r.Context(), id)
	if err != nil {
		if !errors.Is(err, transport.ErrTraceNotFound) {
			slog.Error("failed to retrieve trace", "id", id, "err", err)
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.TraceResponse{
		TraceID:     trace.ID,
		Status:      transport.TraceStatus(trace.Status).String(),
		StartedAt:   trace.StartedAt,
		CompletedAt: trace.CompletedAt,
		DocumentID:  trace.DocumentID,
		Sector:      trace.Sector,
		ChunkCount:  trace.ChunkCount,
		FailReason:  trace.FailReason,
	})
}

// handleStreamTrace relays a task's progress messages as they are
// published, one JSON object per line. The relay ends with the
// stream's terminal DONE or ERR message, or when the caller hangs up.
func (s *Server) handleStreamTrace(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ms, err := s.transport.GetMessageStream(id)
	if err != nil {
		slog.Error("failed to open message stream", "id", id, "err", err)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	for {
		payload, err := ms.Recv(r.Context())
		if err != nil {
			return
		}

		msg := api.TraceMessage{
			ID:      payload.ID,
			Status:  payload.Status,
			Stage:   payload.Stage,
			Message: payload.Message,
		}
		if err := enc.Encode(msg); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}

		if payload.Status == "DONE" || payload.Status == "ERR" {
			return
		}
	}
}

func (s *Server) handleListSectors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.SectorsResponse{Sectors: s.sectors.Names()})
}

func (s *Server) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	vectorID := r.PathValue("vectorID")
	sector := r.URL.Query().Get("sector")
	if sector == "" {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Error: "Missing required parameters. Required: sector",
		})
		return
	}

	rec, err := s.docs.GetChunkByVectorID(r.Context(), sector, vectorID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListDocumentChunks(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("documentID")
	sector := r.URL.Query().Get("sector")
	if sector == "" {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Error: "Missing required parameters. Required: sector",
		})
		return
	}

	recs, err := s.docs.ListDocumentChunks(r.Context(), sector, documentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.DocumentChunksResponse{
		DocumentID: documentID,
		Sector:     sector,
		ChunkCount: len(recs),
		Chunks:     recs,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
