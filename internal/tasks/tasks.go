package tasks

import (
	"encoding/json"

	"github.com/alan-mat/dip/internal/api"
	"github.com/hibiken/asynq"
)

const (
	TypeIngest = "dip:ingest"
)

type ingestTaskPayload struct {
	DocumentID        string
	BlobPath          string
	Sector            string
	Strategy          string
	Options           map[string]any
	EmbeddingTaskType string
}

func NewIngestTask(req api.ProcessRequest) (*asynq.Task, error) {
	tp := ingestTaskPayload{
		DocumentID:        req.DocumentID,
		BlobPath:          req.BlobPath,
		Sector:            req.Sector,
		Strategy:          req.Strategy,
		Options:           req.Options,
		EmbeddingTaskType: req.EmbeddingTaskType,
	}
	payload, err := json.Marshal(tp)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeIngest, payload), nil
}
