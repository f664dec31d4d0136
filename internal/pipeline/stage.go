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

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alan-mat/dip/internal/transport"
)

// State carries a document through one processing run. Each stage
// reads the fields earlier stages produced and fills in its own.
type State struct {
	DocumentID string
	Sector     string
	BlobPath   string
	Strategy   string
	Options    map[string]any
	TaskType   string

	// ObjectKey is BlobPath resolved against the configured bucket.
	ObjectKey string

	CollectionName string
	Dimensions     uint64

	// LocalPath points at the downloaded temp file. The pipeline
	// removes it once the run finishes.
	LocalPath string

	Text      string
	Chunks    []string
	Vectors   [][]float32
	VectorIDs []string
}

type RunnerFunc func(ctx context.Context, s *State) error

// Stage is one named step of the ingestion pipeline.
type Stage struct {
	Name string
	Run  RunnerFunc
}

type Middleware func(Stage) Stage

// StageError wraps a stage failure with the name of the stage that
// produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e StageError) Error() string {
	return fmt.Sprintf("stage '%s' failed: %v", e.Stage, e.Err)
}

func (e StageError) Unwrap() error {
	return e.Err
}

// LoggingMiddleware logs entry, completion and duration of every
// stage it wraps.
func LoggingMiddleware() Middleware {
	return func(next Stage) Stage {
		run := next.Run
		next.Run = func(ctx context.Context, s *State) error {
			start := time.Now()
			slog.Info("running stage", "stage", next.Name, "documentId", s.DocumentID)

			err := run(ctx, s)
			if err != nil {
				slog.Error("stage failed",
					"stage", next.Name, "documentId", s.DocumentID, "err", err)
				return err
			}

			slog.Info("stage complete",
				"stage", next.Name, "documentId", s.DocumentID, "took", time.Since(start))
			return nil
		}
		return next
	}
}

// TransportMiddleware publishes stage progress to the message stream,
// so callers can follow a background run. Send failures are logged
// and ignored, progress reporting never fails a run.
func TransportMiddleware(ms transport.MessageStream) Middleware {
	msgId := 0
	return func(next Stage) Stage {
		run := next.Run
		next.Run = func(ctx context.Context, s *State) error {
			err := run(ctx, s)

			payload := transport.MessageStreamPayload{
				ID:      msgId,
				Status:  "OK",
				Stage:   next.Name,
				Message: fmt.Sprintf("stage '%s' complete", next.Name),
			}
			if err != nil {
				payload.Status = "ERR"
				payload.Message = fmt.Sprintf("stage '%s' failed", next.Name)
			}
			msgId += 1

			if serr := ms.Send(ctx, payload); serr != nil {
				slog.Debug("failed sending stage progress to message stream",
					"stage", next.Name, "err", serr)
			}
			return err
		}
		return next
	}
}
