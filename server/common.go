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

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/alan-mat/dip/internal/api"
	"github.com/alan-mat/dip/internal/blob"
	"github.com/alan-mat/dip/internal/chunk"
	"github.com/alan-mat/dip/internal/docstore"
	"github.com/alan-mat/dip/internal/pipeline"
	"github.com/alan-mat/dip/internal/transport"
)

// corsMiddleware answers preflight requests and marks every response
// as callable from any origin. Preflights never reach the mux, whose
// patterns are method specific.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "POST")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "3600")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	statusCode, resp := classifyError(err)
	writeJSON(w, statusCode, resp)
}

// classifyError maps pipeline and storage failures onto HTTP statuses
// and caller-facing error payloads. Anything unrecognized is a 500.
func classifyError(err error) (int, api.ErrorResponse) {
	resp := api.ErrorResponse{
		Details: err.Error(),
	}

	var sectorErr pipeline.UnknownSectorError
	var strategyErr chunk.UnknownStrategyError
	var optionsErr chunk.InvalidOptionsError
	var notFoundErr blob.NotFoundError
	var deniedErr blob.AccessDeniedError
	var dimsErr pipeline.DimensionMismatchError
	var stageErr pipeline.StageError

	switch {
	case errors.As(err, &sectorErr):
		resp.Error = fmt.Sprintf("Invalid sector: %s. Available sectors: %s",
			sectorErr.Sector, strings.Join(sectorErr.Available, ", "))
		return http.StatusBadRequest, resp

	case errors.As(err, &strategyErr):
		resp.Error = fmt.Sprintf("Invalid processing strategy: %s. Available strategies: %s",
			strategyErr.Name, strings.Join(strategyErr.Available, ", "))
		return http.StatusBadRequest, resp

	case errors.As(err, &optionsErr):
		resp.Error = fmt.Sprintf("Invalid processing options for strategy '%s'", optionsErr.Strategy)
		return http.StatusBadRequest, resp

	case errors.As(err, &notFoundErr):
		resp.Error = fmt.Sprintf("File not found: '%s' in bucket '%s'. Please check that the file exists at this path.",
			notFoundErr.Key, notFoundErr.Bucket)
		resp.Suggestion = "If you uploaded the file to a different path, make sure the blob_path parameter matches the actual file location."
		return http.StatusNotFound, resp

	case errors.As(err, &deniedErr):
		resp.Error = fmt.Sprintf("Access denied to bucket '%s'. Please check credentials and bucket permissions.",
			deniedErr.Bucket)
		return http.StatusForbidden, resp

	case errors.As(err, &dimsErr):
		resp.Error = fmt.Sprintf("Embedding configuration mismatch for sector '%s'", dimsErr.Sector)
		resp.Suggestion = "Align the sector dimensions with the embedding provider's output dimensionality."
		return http.StatusInternalServerError, resp

	case errors.As(err, &stageErr) && stageErr.Stage == "extract":
		resp.Error = "Failed to extract text from the document"
		resp.Suggestion = "The file may be corrupted, password-protected, or in an unsupported format."
		return http.StatusBadRequest, resp

	case errors.Is(err, docstore.ErrChunkNotFound),
		errors.Is(err, docstore.ErrDocumentNotFound),
		errors.Is(err, transport.ErrTraceNotFound):
		resp.Error = err.Error()
		return http.StatusNotFound, resp

	case status.Code(err) == codes.Unavailable:
		resp.Error = "Vector store unavailable"
		resp.Suggestion = "Check that the vector store is running and reachable."
		return http.StatusServiceUnavailable, resp
	}

	resp.Error = "An error occurred while processing the document"
	return http.StatusInternalServerError, resp
}
