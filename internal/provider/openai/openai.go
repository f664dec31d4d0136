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

package openai

import (
	"context"
	"errors"
	"os"

	"github.com/sashabaranov/go-openai"
)

const defaultDimensions = 1536

type OpenAIProvider struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	vectorDims int
}

// New creates an embedder backed by the OpenAI embeddings API. It
// reads the API key from the OPENAI_API_KEY environment variable.
// An empty model selects text-embedding-3-small, dimensions below 1
// leave the output dimensionality to the model.
func New(model string, dimensions int) *OpenAIProvider {
	c := openai.NewClient(os.Getenv("OPENAI_API_KEY"))

	m := openai.SmallEmbedding3
	if model != "" {
		m = openai.EmbeddingModel(model)
	}

	return &OpenAIProvider{
		client:     c,
		model:      m,
		vectorDims: dimensions,
	}
}

// EmbedText embeds a single text. The OpenAI embeddings API has no
// task type concept, taskType is ignored.
func (p OpenAIProvider) EmbedText(ctx context.Context, text string, taskType string) ([]float32, error) {
	openaiReq := openai.EmbeddingRequestStrings{
		Input:          []string{text},
		Model:          p.model,
		EncodingFormat: "float",
	}
	if p.vectorDims > 0 {
		openaiReq.Dimensions = p.vectorDims
	}

	res, err := p.client.CreateEmbeddings(ctx, openaiReq)
	if err != nil {
		return nil, err
	}
	if len(res.Data) == 0 {
		return nil, errors.New("openai returned no embeddings")
	}

	return res.Data[0].Embedding, nil
}

func (p OpenAIProvider) Dimensions() int {
	if p.vectorDims <= 0 {
		return defaultDimensions
	}
	return p.vectorDims
}
