package extract_test

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alan-mat/dip/internal/extract"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"space runs", "hello   world", "hello world"},
		{"tab runs", "tabs\t\there", "tabs here"},
		{"newline runs", "a\n\n\n\nb", "a\n\nb"},
		{"paragraph break survives", "a\n\nb", "a\n\nb"},
		{"line edges trimmed", "  line one  \n  line two  ", "line one\nline two"},
		{"control characters", "ctrl\x00\x01chars", "ctrlchars"},
		{"windows line endings", "win\r\ndows\rlines", "win\ndows\nlines"},
		{"empty", "", ""},
		{"only whitespace", "  \n\t \n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extract.CleanText(tt.in)
			if got != tt.expected {
				t.Errorf("got %q, expected %q", got, tt.expected)
			}
		})
	}
}

func writeTemp(t *testing.T, name string, contents []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		contents []byte
		expected string
	}{
		{"pdf signature", []byte("%PDF-1.7 rest of file"), ".pdf"},
		{"zip signature", []byte("PK\x03\x04 rest of file"), ".docx"},
		{"unknown signature", []byte("just some text"), ".pdf"},
		{"short file", []byte("%P"), ".pdf"},
		{"empty file", []byte{}, ".pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "blob", tt.contents)
			got, err := extract.Detect(path)
			if err != nil {
				t.Fatalf("detect failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got '%s', expected '%s'", got, tt.expected)
			}
		})
	}

	if _, err := extract.Detect(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTextPlain(t *testing.T) {
	path := writeTemp(t, "doc.txt", []byte("Hello\n\n\n\nWorld  !"))

	got, err := extract.Text(context.Background(), path)
	if err != nil {
		t.Fatalf("failed to extract text: %v", err)
	}
	expected := "Hello\n\nWorld !"
	if got != expected {
		t.Errorf("got %q, expected %q", got, expected)
	}
}

func TestTextLatin1(t *testing.T) {
	path := writeTemp(t, "doc.txt", []byte{'c', 'a', 'f', 0xE9})

	got, err := extract.Text(context.Background(), path)
	if err != nil {
		t.Fatalf("failed to extract text: %v", err)
	}
	if got != "café" {
		t.Errorf("got %q, expected %q", got, "café")
	}
}

func TestTextEmptyDocument(t *testing.T) {
	path := writeTemp(t, "doc.txt", []byte("   \n\t\n  "))

	_, err := extract.Text(context.Background(), path)
	if !errors.Is(err, extract.ErrNoText) {
		t.Errorf("got %v, expected ErrNoText", err)
	}
}

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
<w:p><w:r><w:t> </w:t></w:r></w:p>
<w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>Name</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Amount</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>Widget</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>42</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t></w:t></w:r></w:p></w:tc><w:tc><w:p></w:p></w:tc></w:tr>
</w:tbl>
</w:body>
</w:document>`

func writeDocx(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.docx")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTextDocx(t *testing.T) {
	path := writeDocx(t, documentXML)

	got, err := extract.Text(context.Background(), path)
	if err != nil {
		t.Fatalf("failed to extract text: %v", err)
	}

	expected := "First paragraph.\nSecond paragraph.\nName | Amount\nWidget | 42"
	if got != expected {
		t.Errorf("got %q, expected %q", got, expected)
	}
}

func TestTextDocxMissingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("word/other.xml")
	w.Write([]byte("<x/>"))
	zw.Close()
	f.Close()

	if _, err := extract.Text(context.Background(), path); err == nil {
		t.Error("expected error for docx without document.xml")
	}
}

func TestTextUnknownExtensionFallsBack(t *testing.T) {
	// Not a pdf, so the probe chain should land on plain text.
	path := writeTemp(t, "doc.dat", []byte("plain contents"))

	got, err := extract.Text(context.Background(), path)
	if err != nil {
		t.Fatalf("failed to extract text: %v", err)
	}
	if got != "plain contents" {
		t.Errorf("got %q, expected %q", got, "plain contents")
	}
}
