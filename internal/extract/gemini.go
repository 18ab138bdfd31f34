package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/cleared-dev/rollcheck/internal/errors"
	"github.com/cleared-dev/rollcheck/internal/logging"
	"github.com/cleared-dev/rollcheck/internal/model"
)

// generator is the part of genai.Models the extractor uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiExtractor sends the document bytes inline to a Gemini model and asks
// for JSON matching the rent roll schema.
type GeminiExtractor struct {
	models generator
	model  string
}

// NewGeminiExtractor creates a Gemini API client for model.
func NewGeminiExtractor(ctx context.Context, apiKey, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiExtractor{models: client.Models, model: model}, nil
}

// Name implements Extractor.
func (g *GeminiExtractor) Name() string { return "gemini" }

// Extract implements Extractor.
func (g *GeminiExtractor) Extract(ctx context.Context, doc Document) (*Extraction, error) {
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, errors.NewExtractionError(g.Name(), doc.Path, err)
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(data, mimeType(doc.Path)),
		genai.NewPartFromText(Prompt(doc.Kind)),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(doc.Kind),
	}

	logging.FromContext(ctx).Debug().
		Str("model", g.model).
		Str("path", doc.Path).
		Int("bytes", len(data)).
		Msg("requesting gemini extraction")

	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, errors.NewExtractionError(g.Name(), doc.Path, err)
	}
	text := stripFence(resp.Text())
	if text == "" {
		return nil, errors.NewExtractionError(g.Name(), doc.Path, errors.New("empty response"))
	}
	if !json.Valid([]byte(text)) {
		return nil, errors.NewExtractionError(g.Name(), doc.Path, errors.New("response is not JSON"))
	}
	return &Extraction{Raw: json.RawMessage(text)}, nil
}

func responseSchema(kind model.RollKind) *genai.Schema {
	unit := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			model.FieldOccupantName:   {Type: genai.TypeString},
			model.FieldUnitNumber:     {Type: genai.TypeString},
			model.FieldSquareFeet:     {Type: genai.TypeNumber},
			model.FieldLeaseStartDate: {Type: genai.TypeString},
			model.FieldLeaseEndDate:   {Type: genai.TypeString},
		},
	}
	rentField := model.FieldMonthlyRent
	if kind == model.KindArgus {
		rentField = model.FieldPotentialRent
	}
	unit.Properties[rentField] = &genai.Schema{Type: genai.TypeNumber}
	unit.Required = []string{
		model.FieldOccupantName,
		model.FieldUnitNumber,
		model.FieldSquareFeet,
		model.FieldLeaseStartDate,
		model.FieldLeaseEndDate,
		rentField,
	}

	root := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			model.FieldUnits: {Type: genai.TypeArray, Items: unit},
		},
		Required: []string{model.FieldUnits},
	}
	if kind == model.KindArgus {
		root.Properties[model.FieldAnalysisDate] = &genai.Schema{Type: genai.TypeString}
		root.Required = append(root.Required, model.FieldAnalysisDate)
	}
	return root
}
