package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/cleared-dev/rollcheck/internal/errors"
	"github.com/cleared-dev/rollcheck/internal/logging"
)

// DefaultMistralBaseURL is the public Mistral API.
const DefaultMistralBaseURL = "https://api.mistral.ai"

const maxResponseBytes = 16 << 20

// MistralOptions configures a MistralExtractor.
type MistralOptions struct {
	BaseURL           string
	OCRModel          string
	ChatModel         string
	RequestsPerSecond float64
	Timeout           time.Duration
	RetryMax          int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
}

// MistralExtractor runs OCR over the document, then asks a chat model to
// turn the page markdown into JSON.
type MistralExtractor struct {
	key       string
	baseURL   string
	ocrModel  string
	chatModel string
	http      *retryablehttp.Client
	limiter   *rate.Limiter
}

// NewMistralExtractor creates an extractor. Zero options take defaults.
func NewMistralExtractor(apiKey string, opts MistralOptions) *MistralExtractor {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultMistralBaseURL
	}
	if opts.OCRModel == "" {
		opts.OCRModel = "mistral-ocr-latest"
	}
	if opts.ChatModel == "" {
		opts.ChatModel = "mistral-small-latest"
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = 500 * time.Millisecond
	}
	if opts.RetryWaitMax <= 0 {
		opts.RetryWaitMax = 5 * time.Second
	}

	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = opts.RetryWaitMin
	rc.RetryWaitMax = opts.RetryWaitMax
	rc.RetryMax = opts.RetryMax
	rc.HTTPClient.Timeout = opts.Timeout
	rc.Logger = retryLogger{logging.Default()}

	return &MistralExtractor{
		key:       apiKey,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		ocrModel:  opts.OCRModel,
		chatModel: opts.ChatModel,
		http:      rc,
		limiter:   rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
}

// Name implements Extractor.
func (m *MistralExtractor) Name() string { return "mistral" }

type ocrDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type ocrRequest struct {
	Model    string      `json:"model"`
	Document ocrDocument `json:"document"`
}

type ocrResponse struct {
	Pages []struct {
		Index    int    `json:"index"`
		Markdown string `json:"markdown"`
	} `json:"pages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Extract implements Extractor.
func (m *MistralExtractor) Extract(ctx context.Context, doc Document) (*Extraction, error) {
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, errors.NewExtractionError(m.Name(), doc.Path, err)
	}

	pages, err := m.ocr(ctx, doc.Path, data)
	if err != nil {
		return nil, errors.NewExtractionError(m.Name(), doc.Path, err)
	}
	logging.FromContext(ctx).Debug().
		Str("path", doc.Path).
		Int("pages", len(pages)).
		Msg("mistral ocr complete")

	raw, err := m.structure(ctx, doc, pages)
	if err != nil {
		return nil, errors.NewExtractionError(m.Name(), doc.Path, err)
	}
	return &Extraction{Pages: pages, Raw: raw}, nil
}

func (m *MistralExtractor) ocr(ctx context.Context, path string, data []byte) ([]string, error) {
	dataURL := "data:" + mimeType(path) + ";base64," + base64.StdEncoding.EncodeToString(data)
	req := ocrRequest{Model: m.ocrModel, Document: ocrDocument{Type: "document_url", DocumentURL: dataURL}}
	if isImage(path) {
		req.Document = ocrDocument{Type: "image_url", ImageURL: dataURL}
	}

	var resp ocrResponse
	if err := m.post(ctx, "/v1/ocr", req, &resp); err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}
	if len(resp.Pages) == 0 {
		return nil, errors.New("ocr returned no pages")
	}
	pages := make([]string, len(resp.Pages))
	for i, p := range resp.Pages {
		pages[i] = p.Markdown
	}
	return pages, nil
}

func (m *MistralExtractor) structure(ctx context.Context, doc Document, pages []string) (json.RawMessage, error) {
	prompt := "This is the document's OCR in markdown:\n" + strings.Join(pages, "\n\n") + "\n\n" + Prompt(doc.Kind)
	req := chatRequest{
		Model:          m.chatModel,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	var resp chatResponse
	if err := m.post(ctx, "/v1/chat/completions", req, &resp); err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat returned no choices")
	}
	text := stripFence(resp.Choices[0].Message.Content)
	if !json.Valid([]byte(text)) {
		return nil, errors.New("chat response is not JSON")
	}
	return json.RawMessage(text), nil
}

func (m *MistralExtractor) post(ctx context.Context, path string, body, out any) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.key)

	resp, err := m.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if len(data) > maxResponseBytes {
		return errors.New("payload too large")
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("mistral error %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// retryLogger routes retryablehttp's leveled logs into zerolog.
type retryLogger struct {
	l *zerolog.Logger
}

func (r retryLogger) Error(msg string, kv ...interface{}) { r.l.Error().Fields(kv).Msg(msg) }
func (r retryLogger) Info(msg string, kv ...interface{})  { r.l.Debug().Fields(kv).Msg(msg) }
func (r retryLogger) Debug(msg string, kv ...interface{}) { r.l.Debug().Fields(kv).Msg(msg) }
func (r retryLogger) Warn(msg string, kv ...interface{})  { r.l.Warn().Fields(kv).Msg(msg) }
