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

package api

import "time"

// ChunkRecord is a single stored chunk of a processed document.
// Records are keyed by their vector id and ordered by chunk index
// within a document.
type ChunkRecord struct {
	Text       string    `json:"text" dynamodbav:"text"`
	VectorID   string    `json:"vector_id" dynamodbav:"vector_id"`
	DocumentID string    `json:"document_id" dynamodbav:"document_id"`
	Sector     string    `json:"sector" dynamodbav:"sector"`
	ChunkIndex int       `json:"chunk_index" dynamodbav:"chunk_index"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at"`
}

// DocumentRecord holds the per-document metadata written once per
// processing run.
type DocumentRecord struct {
	DocumentID string       `json:"document_id" dynamodbav:"document_id"`
	Sector     string       `json:"sector" dynamodbav:"sector"`
	ChunkCount int          `json:"chunk_count" dynamodbav:"chunk_count"`
	Meta       DocumentMeta `json:"metadata" dynamodbav:"metadata"`
	CreatedAt  time.Time    `json:"created_at" dynamodbav:"created_at"`
}

// DocumentMeta records how a document was processed.
type DocumentMeta struct {
	OriginalBlobPath  string         `json:"original_blob_path" dynamodbav:"original_blob_path"`
	Strategy          string         `json:"processing_strategy" dynamodbav:"processing_strategy"`
	Options           map[string]any `json:"processing_options,omitempty" dynamodbav:"processing_options,omitempty"`
	EmbeddingTaskType string         `json:"embedding_task_type" dynamodbav:"embedding_task_type"`
}
