// Package extractor converts uploaded document bytes into plain text.
package extractor

import (
	"bytes"
	"fmt"

	"code.sajari.com/docconv"
)

// DocconvExtractor extracts plain text from document bytes using the
// docconv conversion library. The concrete converter is picked by the
// MIME type derived from the uploaded file name.
type DocconvExtractor struct{}

// New creates a new DocconvExtractor.
func New() *DocconvExtractor {
	return &DocconvExtractor{}
}

// ExtractText converts the raw document bytes into plain text.
// The file name is only used to derive the MIME type.
func (e *DocconvExtractor) ExtractText(filename string, data []byte) (string, error) {
	converted, err := docconv.Convert(
		bytes.NewReader(data),
		docconv.MimeTypeByExtension(filename),
		false,
	)
	if err != nil {
		return "", fmt.Errorf("in internal/extractor/extractor.go/ExtractText(): error while `docconv.Convert()` calling: %w", err)
	}

	return converted.Body, nil
}
