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

// Package extract pulls plain text out of document files.
//
// Supported formats:
//   - .pdf: loader based extraction with a pure Go fallback
//   - .docx: paragraphs and tables from word/document.xml
//   - .txt: utf-8 with latin-1 fallback
//
// Files without an extension are identified by their magic bytes.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNoText is returned when a document parses cleanly but contains no
// extractable text.
var ErrNoText = errors.New("document contains no extractable text")

// UnsupportedTypeError reports a document format none of the parsers
// could handle.
type UnsupportedTypeError struct {
	Ext string
}

func (e UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported document type '%s'", e.Ext)
}

// Text extracts and normalizes the text content of the document at
// path, dispatching on the file extension. Unknown extensions are
// probed as pdf first, then as plain text.
func Text(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		detected, err := Detect(path)
		if err != nil {
			return "", err
		}
		ext = detected
	}

	var (
		text string
		err  error
	)

	switch ext {
	case ".pdf":
		text, err = fromPDF(ctx, path)
	case ".docx":
		text, err = fromDOCX(path)
	case ".txt":
		text, err = fromTXT(path)
	default:
		slog.Warn("unknown document extension, probing formats", "ext", ext)
		text, err = fromPDF(ctx, path)
		if err != nil {
			text, err = fromTXT(path)
			if err != nil {
				return "", UnsupportedTypeError{Ext: ext}
			}
		}
	}
	if err != nil {
		return "", err
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return "", ErrNoText
	}
	return cleaned, nil
}

// Detect identifies a document by its magic bytes. Unknown signatures
// default to pdf, the most common upload.
func Detect(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	// io.ReadFull returns bare io.EOF for a zero-byte file; a header
	// shorter than 8 bytes just falls through to the default.
	head := make([]byte, 8)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read document header: %w", err)
	}
	head = head[:n]

	switch {
	case strings.HasPrefix(string(head), "%PDF-"):
		return ".pdf", nil
	case strings.HasPrefix(string(head), "PK\x03\x04"):
		return ".docx", nil
	default:
		slog.Warn("unrecognized file signature, assuming pdf", "path", path)
		return ".pdf", nil
	}
}

var (
	spaceRuns    = regexp.MustCompile(`[ \t]+`)
	lineEdges    = regexp.MustCompile(` *\n *`)
	newlineRuns  = regexp.MustCompile(`\n{3,}`)
	controlChars = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
)

// CleanText normalizes extracted text: control characters are dropped
// and whitespace is collapsed while paragraph breaks survive.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = controlChars.ReplaceAllString(text, "")
	text = spaceRuns.ReplaceAllString(text, " ")
	text = lineEdges.ReplaceAllString(text, "\n")
	text = newlineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
