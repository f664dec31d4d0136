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

package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"
)

const (
	defaultModel      = "text-embedding-004"
	defaultDimensions = 768
)

type GeminiProvider struct {
	client     *genai.Client
	model      string
	vectorDims *int32
}

// New creates an embedder backed by the Gemini API. It reads the API
// key from the GEMINI_API_KEY environment variable. An empty model
// selects defaultModel, dimensions below 1 leave the output
// dimensionality to the model.
func New(model string, dimensions int) (*GeminiProvider, error) {
	c, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if model == "" {
		model = defaultModel
	}

	p := &GeminiProvider{
		client: c,
		model:  model,
	}
	if dimensions > 0 {
		p.vectorDims = new(int32)
		*(p.vectorDims) = int32(dimensions)
	}
	return p, nil
}

func (p GeminiProvider) EmbedText(ctx context.Context, text string, taskType string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	config := &genai.EmbedContentConfig{
		TaskType:             taskType,
		OutputDimensionality: p.vectorDims,
	}

	res, err := p.client.Models.EmbedContent(ctx, p.model, contents, config)
	if err != nil {
		return nil, err
	}
	if len(res.Embeddings) == 0 {
		return nil, errors.New("gemini returned no embeddings")
	}

	return res.Embeddings[0].Values, nil
}

func (p GeminiProvider) Dimensions() int {
	if p.vectorDims == nil {
		return defaultDimensions
	}
	return int(*p.vectorDims)
}
