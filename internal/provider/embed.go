package provider

import (
	"context"
	"log/slog"
)

// embedBatchSize bounds how many texts are processed between progress
// log lines. Requests within a batch are still issued one at a time.
const embedBatchSize = 5

// EmbedAll embeds every text with the given embedder, returning one
// vector per input text in input order.
//
// Texts are processed sequentially in batches of embedBatchSize. A
// failed or empty embedding does not abort the run, the affected text
// receives a zero vector of the embedder dimensionality and a warning
// is logged. The only error returned is context cancellation.
func EmbedAll(ctx context.Context, e Embedder, texts []string, taskType string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += embedBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+embedBatchSize, len(texts))
		for i, text := range texts[start:end] {
			vector, err := e.EmbedText(ctx, text, taskType)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				slog.Warn("failed to embed text, using zero vector",
					"index", start+i, "error", err)
				vector = make([]float32, e.Dimensions())
			} else if len(vector) == 0 {
				slog.Warn("embedder returned empty vector, using zero vector",
					"index", start+i)
				vector = make([]float32, e.Dimensions())
			}
			vectors = append(vectors, vector)
		}

		slog.Debug("embedded batch",
			"processed", end, "total", len(texts), "taskType", taskType)
	}

	return vectors, nil
}
