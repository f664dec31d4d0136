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

// Package client is a typed HTTP client for the dip API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/alan-mat/dip/internal/api"
)

var retryStatusCodes = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

const (
	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 3
)

type Client struct {
	httpClient *http.Client
	maxRetries int

	endpoint string
}

type Option func(*Client)

func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		maxRetries: defaultMaxRetries,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithMaxRetries(maxRetries int) Option {
	return func(c *Client) {
		if maxRetries < 1 {
			maxRetries = 1
		}
		c.maxRetries = maxRetries
	}
}

// APIError is a non-2xx response from the server, decoded from the
// API error shape where possible.
type APIError struct {
	StatusCode int
	Message    string
	Suggestion string
}

func (e APIError) Error() string {
	return fmt.Sprintf("(HTTP Error %d) %s", e.StatusCode, e.Message)
}

// ProcessDocument runs a document through the pipeline synchronously.
func (c *Client) ProcessDocument(ctx context.Context, req api.ProcessRequest) (*api.ProcessResponse, error) {
	var resp api.ProcessResponse
	if err := c.do(ctx, http.MethodPost, "/v1/documents/process", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IngestDocument enqueues a document for background processing and
// returns the task id to poll traces with.
func (c *Client) IngestDocument(ctx context.Context, req api.IngestRequest) (*api.IngestAccepted, error) {
	var resp api.IngestAccepted
	if err := c.do(ctx, http.MethodPost, "/v1/documents", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetTrace(ctx context.Context, taskID string) (*api.TraceResponse, error) {
	var resp api.TraceResponse
	path := "/v1/traces/" + url.PathEscape(taskID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Sectors(ctx context.Context) (*api.SectorsResponse, error) {
	var resp api.SectorsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/sectors", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetChunk(ctx context.Context, sector, vectorID string) (*api.ChunkRecord, error) {
	var resp api.ChunkRecord
	path := "/v1/chunks/" + url.PathEscape(vectorID) + "?sector=" + url.QueryEscape(sector)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListDocumentChunks(ctx context.Context, sector, documentID string) (*api.DocumentChunksResponse, error) {
	var resp api.DocumentChunksResponse
	path := "/v1/documents/" + url.PathEscape(documentID) + "/chunks?sector=" + url.QueryEscape(sector)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// StreamTraceMessages follows the progress messages of a background
// task, invoking fn for each message until the server ends the relay.
// The configured timeout does not apply; bound the call with ctx.
func (c *Client) StreamTraceMessages(ctx context.Context, taskID string, fn func(api.TraceMessage)) error {
	base, err := url.Parse(c.endpoint)
	if err != nil {
		return err
	}
	ref, err := url.Parse("/v1/traces/" + url.PathEscape(taskID) + "/stream")
	if err != nil {
		return err
	}
	uri := base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri.String(), nil)
	if err != nil {
		return err
	}

	streamClient := *c.httpClient
	streamClient.Timeout = 0
	resp, err := streamClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	dec := json.NewDecoder(resp.Body)
	for {
		var msg api.TraceMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		fn(msg)
	}
}

func (c *Client) do(ctx context.Context, method string, path string, payload any, out any) error {
	base, err := url.Parse(c.endpoint)
	if err != nil {
		return err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return err
	}
	uri := base.ResolveReference(ref)

	var body []byte
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}

	var resp *http.Response
	for i := range c.maxRetries {
		var reqBody io.Reader
		if body != nil {
			reqBody = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, uri.String(), reqBody)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err = c.httpClient.Do(req)
		if err != nil {
			if i == c.maxRetries-1 {
				return err
			}
			continue
		}

		if retryStatusCodes[resp.StatusCode] && i < c.maxRetries-1 {
			resp.Body.Close()
			time.Sleep(time.Duration(i+1) * 500 * time.Millisecond)
			continue
		}
		break
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) error {
	respBytes, _ := io.ReadAll(resp.Body)

	// truncate error responses
	if len(respBytes) > 512 {
		respBytes = respBytes[:512]
	}

	apiErr := APIError{StatusCode: resp.StatusCode}
	var errResp api.ErrorResponse
	if err := json.Unmarshal(respBytes, &errResp); err == nil && errResp.Error != "" {
		apiErr.Message = errResp.Error
		apiErr.Suggestion = errResp.Suggestion
	} else {
		apiErr.Message = string(respBytes)
	}
	return apiErr
}
