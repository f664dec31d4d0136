package api

import "github.com/alan-mat/dip/internal/message"

// ProcessRequest describes one document processing run. BlobPath may
// carry a scheme prefix ("s3://...") or a leading bucket segment; the
// configured bucket always wins when the object is resolved.
type ProcessRequest struct {
	DocumentID        string         `json:"document_id"`
	BlobPath          string         `json:"blob_path"`
	Sector            string         `json:"sector"`
	Strategy          string         `json:"processing_strategy"`
	Options           map[string]any `json:"processing_options,omitempty"`
	EmbeddingTaskType string         `json:"embedding_task_type,omitempty"`
}

// ProcessResponse is the success payload of a processing run.
type ProcessResponse struct {
	Success           bool     `json:"success"`
	DocumentID        string   `json:"document_id"`
	Sector            string   `json:"sector"`
	ChunkCount        int      `json:"chunk_count"`
	VectorIDs         []string `json:"vector_ids"`
	EmbeddingTaskType string   `json:"embedding_task_type"`
}

// IngestRequest enqueues a processing run for background execution.
// When File is set the server uploads it to object storage first and
// derives BlobPath from it.
type IngestRequest struct {
	ProcessRequest
	File *message.FileContent `json:"file,omitempty"`
}

// IngestAccepted acknowledges an enqueued ingestion task.
type IngestAccepted struct {
	TaskID string `json:"task_id"`
}

// TraceResponse reports the state of a background ingestion task.
type TraceResponse struct {
	TraceID     string `json:"trace_id"`
	Status      string `json:"status"`
	StartedAt   int64  `json:"started_at"`
	CompletedAt int64  `json:"completed_at,omitempty"`
	DocumentID  string `json:"document_id"`
	Sector      string `json:"sector"`
	ChunkCount  int    `json:"chunk_count"`
	FailReason  string `json:"fail_reason,omitempty"`
}

// TraceMessage is one progress message of a background ingestion
// task, relayed from the worker's message stream.
type TraceMessage struct {
	ID      int    `json:"id"`
	Status  string `json:"status"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

// SectorsResponse lists the sectors documents may be filed under.
type SectorsResponse struct {
	Sectors []string `json:"sectors"`
}

// DocumentChunksResponse returns the stored chunks of one document in
// chunk index order.
type DocumentChunksResponse struct {
	DocumentID string         `json:"document_id"`
	Sector     string         `json:"sector"`
	ChunkCount int            `json:"chunk_count"`
	Chunks     []*ChunkRecord `json:"chunks"`
}
