package dip_cohere

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

const (
	defaultModel = "embed-multilingual-v3.0"

	// All v3 embedding models produce 1024-dimensional vectors.
	modelDimensions = 1024
)

type CohereProvider struct {
	client *cohereclient.Client
	model  string
}

// New creates an embedder backed by the Cohere v2 embed API. It reads
// the API key from the COHERE_API_KEY environment variable. An empty
// model selects defaultModel. Cohere models have fixed output
// dimensionality, dimensions is ignored.
func New(model string, dimensions int) *CohereProvider {
	c := cohereclient.NewClient(
		cohereclient.WithToken(os.Getenv("COHERE_API_KEY")),
		cohereclient.WithHTTPClient(
			&http.Client{
				Timeout: 60 * time.Second,
			},
		),
	)

	if model == "" {
		model = defaultModel
	}

	return &CohereProvider{
		client: c,
		model:  model,
	}
}

func (p CohereProvider) EmbedText(ctx context.Context, text string, taskType string) ([]float32, error) {
	req := &cohere.V2EmbedRequest{
		Texts:          []string{text},
		Model:          p.model,
		InputType:      embedInputType(taskType),
		EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
	}

	resp, err := p.client.V2.Embed(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings.Float) == 0 {
		return nil, errors.New("cohere returned no embeddings")
	}

	cohereVector := resp.Embeddings.Float[0]
	vector := make([]float32, 0, len(cohereVector))
	for _, f64 := range cohereVector {
		vector = append(vector, float32(f64))
	}
	return vector, nil
}

func (p CohereProvider) Dimensions() int {
	return modelDimensions
}

// embedInputType maps an embedding task type onto the closest cohere
// input type. Unmapped task types embed as documents.
func embedInputType(taskType string) cohere.EmbedInputType {
	switch taskType {
	case "RETRIEVAL_QUERY", "QUESTION_ANSWERING", "CODE_RETRIEVAL_QUERY":
		return cohere.EmbedInputTypeSearchQuery
	case "CLASSIFICATION":
		return cohere.EmbedInputTypeClassification
	case "CLUSTERING":
		return cohere.EmbedInputTypeClustering
	default:
		return cohere.EmbedInputTypeSearchDocument
	}
}
