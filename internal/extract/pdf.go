package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/tmc/langchaingo/documentloaders"
)

// fromPDF extracts page text using the langchaingo loader and falls
// back to a plain text walk of the content streams when the loader
// fails or yields nothing. Image-only pages produce no text.
func fromPDF(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat document: %w", err)
	}

	docs, err := documentloaders.NewPDF(f, info.Size()).Load(ctx)
	if err == nil {
		pages := make([]string, 0, len(docs))
		for _, doc := range docs {
			if t := strings.TrimSpace(doc.PageContent); t != "" {
				pages = append(pages, t)
			}
		}
		if len(pages) > 0 {
			return strings.Join(pages, "\n\n"), nil
		}
	}

	slog.Warn("pdf loader produced no text, trying fallback parser", "path", path, "err", err)
	return pdfPlainText(path)
}

func pdfPlainText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to parse pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, reader); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return sb.String(), nil
}
