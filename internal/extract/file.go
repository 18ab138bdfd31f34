package extract

import (
	"context"
	"encoding/json"
	"os"

	"github.com/cleared-dev/rollcheck/internal/errors"
)

// FileExtractor reads an extraction that was produced earlier and saved as
// JSON. It is the offline backend used by tests and the CLI.
type FileExtractor struct{}

// Name implements Extractor.
func (FileExtractor) Name() string { return "file" }

// Extract implements Extractor.
func (f FileExtractor) Extract(ctx context.Context, doc Document) (*Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewExtractionError(f.Name(), doc.Path, err)
	}
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, errors.NewExtractionError(f.Name(), doc.Path, err)
	}
	if !json.Valid(data) {
		return nil, errors.NewExtractionError(f.Name(), doc.Path, errors.New("not a JSON document"))
	}
	return &Extraction{Raw: json.RawMessage(data)}, nil
}
