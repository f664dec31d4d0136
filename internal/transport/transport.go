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

package transport

import (
	"context"
	"errors"
	"time"
)

var (
	TraceExpiry = time.Hour * 24

	ErrTraceNotFound = errors.New("trace not found")
)

type Transport interface {
	GetMessageStream(id string) (MessageStream, error)
	SetTrace(ctx context.Context, trace *RequestTrace) error
	GetTrace(ctx context.Context, traceId string) (*RequestTrace, error)
}

type MessageStream interface {
	Send(ctx context.Context, payload MessageStreamPayload) error

	Recv(ctx context.Context) (*MessageStreamPayload, error)

	GetID() string
}

type MessageStreamPayload struct {
	ID     int    `json:"id"`
	Status string `json:"status"`

	// Stage names the pipeline stage this message originated from.
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

// RequestTrace records the lifecycle of a single ingestion request.
// Timestamps are unix nanoseconds, zero means not yet completed.
type RequestTrace struct {
	ID          string `redis:"id"`
	Status      int    `redis:"status"`
	StartedAt   int64  `redis:"started_at"`
	CompletedAt int64  `redis:"completed_at"`
	DocumentID  string `redis:"document_id"`
	Sector      string `redis:"sector"`
	ChunkCount  int    `redis:"chunk_count"`

	// FailReason contains the error message related to the failing
	// of this trace. This field must be empty, unless Status is set
	// to TraceStatusFailed.
	FailReason string `redis:"fail_reason"`
}

func NewTrace(id string, documentID string, sector string) *RequestTrace {
	return &RequestTrace{
		ID:         id,
		Status:     TraceStatusRunning,
		StartedAt:  time.Now().UnixNano(),
		DocumentID: documentID,
		Sector:     sector,
	}
}

// Complete marks a running trace as completed, recording the number
// of chunks the request produced. It has no effect on traces in any
// other state.
func (t *RequestTrace) Complete(chunkCount int) {
	if t.Status != TraceStatusRunning {
		return
	}

	t.CompletedAt = time.Now().UnixNano()
	t.Status = TraceStatusCompleted
	t.ChunkCount = chunkCount
}

// Fail marks a running trace as failed. It has no effect on traces
// in any other state.
func (t *RequestTrace) Fail(reason error) {
	if t.Status != TraceStatusRunning {
		return
	}

	t.CompletedAt = time.Now().UnixNano()
	t.Status = TraceStatusFailed
	t.FailReason = reason.Error()
}

type TraceStatus int

const (
	TraceStatusUnspecified = iota
	TraceStatusRunning
	TraceStatusCompleted
	TraceStatusFailed
)

func (s TraceStatus) String() string {
	switch s {
	case TraceStatusRunning:
		return "running"
	case TraceStatusCompleted:
		return "completed"
	case TraceStatusFailed:
		return "failed"
	default:
		return "unspecified"
	}
}
