package provider

import (
	"context"
	"errors"
	"fmt"

	dip_cohere "github.com/alan-mat/dip/internal/provider/cohere"
	"github.com/alan-mat/dip/internal/provider/gemini"
	"github.com/alan-mat/dip/internal/provider/openai"
)

var ErrInvalidEmbedderType = errors.New("no embedder found for given type")

const (
	EmbedderTypeGemini = iota
	EmbedderTypeOpenAI
	EmbedderTypeCohere
)

type EmbedderType int

var embedderTypeMap = map[string]EmbedderType{
	"gemini": EmbedderTypeGemini,
	"openai": EmbedderTypeOpenAI,
	"cohere": EmbedderTypeCohere,
}

// Embedder computes embedding vectors for single texts.
// Implementations are stateless with respect to requests and safe
// for concurrent use.
type Embedder interface {
	// EmbedText returns the embedding vector for the given text.
	// taskType hints the intended downstream use of the vector,
	// providers without task type support ignore it.
	EmbedText(ctx context.Context, text string, taskType string) ([]float32, error)

	// Dimensions returns the length of the vectors this embedder produces.
	Dimensions() int
}

// EmbedderConfig carries provider-independent embedder settings.
// Zero values select the provider defaults.
type EmbedderConfig struct {
	// Model overrides the provider default embedding model.
	Model string

	// Dimensions sets the requested output dimensionality.
	Dimensions int
}

// NewEmbedder creates an Embedder for the named provider type.
// It returns ErrInvalidEmbedderType for unrecognised names.
func NewEmbedder(name string, config EmbedderConfig) (Embedder, error) {
	t, ok := embedderTypeMap[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEmbedderType, name)
	}

	switch t {
	case EmbedderTypeGemini:
		return gemini.New(config.Model, config.Dimensions)
	case EmbedderTypeOpenAI:
		return openai.New(config.Model, config.Dimensions), nil
	case EmbedderTypeCohere:
		return dip_cohere.New(config.Model, config.Dimensions), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidEmbedderType, name)
	}
}
