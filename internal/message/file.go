package message

import (
	"encoding/base64"
	"fmt"
)

// FileContent contains the name of a file and
// its base64 encoded contents.
type FileContent struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Decode returns the raw bytes of the file contents.
func (fc FileContent) Decode() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(fc.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode file %q: %w", fc.Name, err)
	}
	return b, nil
}
