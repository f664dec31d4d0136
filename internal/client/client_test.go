package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/alan-mat/dip/internal/api"
	"github.com/alan-mat/dip/internal/client"
)

func TestProcessDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/documents/process" {
			t.Errorf("got %s %s, expected POST /v1/documents/process", r.Method, r.URL.Path)
		}

		var req api.ProcessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.DocumentID != "doc-1" {
			t.Errorf("got document id %q, expected doc-1", req.DocumentID)
		}

		json.NewEncoder(w).Encode(api.ProcessResponse{
			Success:    true,
			DocumentID: req.DocumentID,
			Sector:     req.Sector,
			ChunkCount: 3,
			VectorIDs:  []string{"v1", "v2", "v3"},
		})
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	resp, err := c.ProcessDocument(context.Background(), api.ProcessRequest{
		DocumentID: "doc-1",
		BlobPath:   "legal/doc-1.pdf",
		Sector:     "legal",
		Strategy:   "semantic",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.ChunkCount != 3 {
		t.Errorf("got chunk count %d, expected 3", resp.ChunkCount)
	}
	if len(resp.VectorIDs) != 3 {
		t.Errorf("got %d vector ids, expected 3", len(resp.VectorIDs))
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(api.ErrorResponse{
			Error:      "Document not found at blob path",
			Suggestion: "Ensure blob_path matches the uploaded location",
		})
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	_, err := c.GetTrace(context.Background(), "missing")

	var apiErr client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, expected APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("got status %d, expected 404", apiErr.StatusCode)
	}
	if apiErr.Message != "Document not found at blob path" {
		t.Errorf("got message %q, expected decoded error", apiErr.Message)
	}
	if apiErr.Suggestion == "" {
		t.Error("expected suggestion to be decoded")
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(api.SectorsResponse{Sectors: []string{"hr", "legal"}})
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithMaxRetries(2))
	resp, err := c.Sectors(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("got %d requests, expected 2", got)
	}
	if len(resp.Sectors) != 2 {
		t.Errorf("got sectors %v, expected 2 entries", resp.Sectors)
	}
}

func TestStreamTraceMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/traces/task-1/stream" {
			t.Errorf("got path %s, expected /v1/traces/task-1/stream", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		enc.Encode(api.TraceMessage{ID: 0, Status: "OK", Stage: "download", Message: "stage 'download' completed"})
		enc.Encode(api.TraceMessage{ID: 1, Status: "OK", Stage: "extract", Message: "stage 'extract' completed"})
		enc.Encode(api.TraceMessage{ID: 2, Status: "DONE", Message: "task finished"})
	}))
	defer srv.Close()

	var msgs []api.TraceMessage
	err := client.New(srv.URL).StreamTraceMessages(context.Background(), "task-1", func(msg api.TraceMessage) {
		msgs = append(msgs, msg)
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, expected 3", len(msgs))
	}
	if msgs[0].Stage != "download" {
		t.Errorf("got first stage %q, expected download", msgs[0].Stage)
	}
	if msgs[2].Status != "DONE" {
		t.Errorf("got final status %q, expected DONE", msgs[2].Status)
	}
}

func TestStreamTraceMessagesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "stream unavailable"})
	}))
	defer srv.Close()

	err := client.New(srv.URL).StreamTraceMessages(context.Background(), "task-1", func(api.TraceMessage) {
		t.Error("callback must not run on an error response")
	})

	var apiErr client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, expected APIError", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("got status %d, expected 500", apiErr.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Errorf("got path %s, expected /healthz", r.URL.Path)
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	if err := client.New(srv.URL).Health(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
