package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTextRejectsGarbage(t *testing.T) {
	theExtractor := New()

	_, err := theExtractor.ExtractText("scroll.pdf", []byte("this is not a real PDF document"))
	assert.Error(t, err)
}

func TestExtractTextRejectsUnknownContentType(t *testing.T) {
	theExtractor := New()

	_, err := theExtractor.ExtractText("scroll.unknown", []byte("arbitrary payload"))
	assert.Error(t, err)
}
