// Package extract turns rent roll documents into loosely shaped JSON
// extractions using a document-understanding backend.
package extract

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/rollcheck/internal/model"
)

// Document is one input file and the roll it describes.
type Document struct {
	Path string
	Kind model.RollKind
}

// Extraction is the backend output for a document. Raw is handed to a
// normalizer unchanged.
type Extraction struct {
	Pages []string        `json:"pages,omitempty"`
	Raw   json.RawMessage `json:"raw"`
}

// Extractor reads a document and returns its extraction.
type Extractor interface {
	Extract(ctx context.Context, doc Document) (*Extraction, error)
	// Name identifies the backend in errors and cache keys.
	Name() string
}

// mimeType guesses the upload type from the file extension.
func mimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".json":
		return "application/json"
	default:
		return "application/pdf"
	}
}

func isImage(path string) bool {
	return strings.HasPrefix(mimeType(path), "image/")
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
