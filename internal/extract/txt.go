package extract

import (
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// fromTXT reads a plain text file, decoding latin-1 when the contents
// are not valid utf-8.
func fromTXT(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}

	if utf8.Valid(b) {
		return string(b), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("failed to decode document: %w", err)
	}
	return string(decoded), nil
}
