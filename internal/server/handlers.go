package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/render"

	"github.com/cleared-dev/rollcheck/internal/errors"
	"github.com/cleared-dev/rollcheck/internal/logging"
	"github.com/cleared-dev/rollcheck/internal/pipeline"
	"github.com/cleared-dev/rollcheck/internal/reconcile"
	"github.com/cleared-dev/rollcheck/internal/report"
)

// ReconcileRequest is the body of POST /v1/reconcile. Actual and Argus are
// raw extractions: JSON objects, or strings containing JSON.
type ReconcileRequest struct {
	Actual               json.RawMessage `json:"actual"`
	Argus                json.RawMessage `json:"argus"`
	MaterialityThreshold string          `json:"materiality_threshold,omitempty"`
}

// ReconcileResponse is the JSON result of a comparison.
type ReconcileResponse struct {
	RunID  string          `json:"run_id"`
	Result report.Document `json:"result"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) handleReconcile(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, s.maxUpload)
	var body ReconcileRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeStatus(w, req, http.StatusRequestEntityTooLarge, "too_large", err.Error())
			return
		}
		writeStatus(w, req, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if len(body.Actual) == 0 || len(body.Argus) == 0 {
		writeStatus(w, req, http.StatusBadRequest, "missing_field", "both actual and argus are required")
		return
	}
	format, err := requestFormat(req)
	if err != nil {
		writeStatus(w, req, http.StatusBadRequest, "invalid_format", err.Error())
		return
	}
	p, err := s.withThreshold(body.MaterialityThreshold)
	if err != nil {
		s.writeError(w, req, err)
		return
	}

	run, err := p.CompareRaw(rawInput(body.Actual), rawInput(body.Argus))
	if err != nil {
		s.writeError(w, req, err)
		return
	}
	logging.FromContext(req.Context()).Info().
		Str("run_id", run.ID.String()).
		Int("discrepancies", len(run.Result.Discrepancies)).
		Msg("reconciled raw extractions")
	s.writeRun(w, req, format, run)
}

func (s *Server) handleDocuments(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, s.maxUpload)
	if err := req.ParseMultipartForm(s.maxUpload); err != nil {
		writeStatus(w, req, http.StatusBadRequest, "invalid_upload", err.Error())
		return
	}
	defer req.MultipartForm.RemoveAll()

	format, err := requestFormat(req)
	if err != nil {
		writeStatus(w, req, http.StatusBadRequest, "invalid_format", err.Error())
		return
	}
	p, err := s.withThreshold(req.FormValue("materiality_threshold"))
	if err != nil {
		s.writeError(w, req, err)
		return
	}

	dir, err := os.MkdirTemp("", "rollcheck-upload-")
	if err != nil {
		s.writeError(w, req, err)
		return
	}
	defer os.RemoveAll(dir)

	paths := make(map[string]string, 2)
	for _, field := range []string{"actual", "argus"} {
		file, header, err := req.FormFile(field)
		if err != nil {
			writeStatus(w, req, http.StatusBadRequest, "missing_field", field+" file is required")
			return
		}
		path, err := saveUpload(dir, field, header, file)
		file.Close()
		if err != nil {
			s.writeError(w, req, err)
			return
		}
		paths[field] = path
	}

	run, err := p.Compare(req.Context(), paths["actual"], paths["argus"])
	if err != nil {
		s.writeError(w, req, err)
		return
	}
	s.writeRun(w, req, format, run)
}

func (s *Server) withThreshold(value string) (*pipeline.Pipeline, error) {
	p := *s.pipeline
	if strings.TrimSpace(value) == "" {
		return &p, nil
	}
	th, err := reconcile.ParseThreshold(strings.TrimSpace(value))
	if err != nil {
		return nil, err
	}
	p.Threshold = th
	return &p, nil
}

func (s *Server) writeRun(w http.ResponseWriter, req *http.Request, format report.Format, run *pipeline.Run) {
	if format == report.FormatJSON {
		render.JSON(w, req, ReconcileResponse{RunID: run.ID.String(), Result: report.NewDocument(run.Result)})
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format, run.Result); err != nil {
		s.writeError(w, req, err)
		return
	}
	contentType := "text/plain; charset=utf-8"
	switch format {
	case report.FormatMarkdown:
		contentType = "text/markdown; charset=utf-8"
	case report.FormatYAML:
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Run-ID", run.ID.String())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// writeError maps the error taxonomy onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status, kind := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, errors.ErrNormalization):
		status, kind = http.StatusUnprocessableEntity, "normalization_error"
	case errors.Is(err, errors.ErrReconciliation):
		status, kind = http.StatusUnprocessableEntity, "reconciliation_error"
	case errors.Is(err, errors.ErrConfiguration):
		status, kind = http.StatusBadRequest, "configuration_error"
	case errors.Is(err, errors.ErrExtraction):
		status, kind = http.StatusBadGateway, "extraction_error"
	}

	log := logging.FromContext(req.Context())
	if status >= 500 {
		log.Error().Err(err).Msg("request failed")
	} else {
		log.Warn().Err(err).Msg("request rejected")
	}
	writeStatus(w, req, status, kind, err.Error())
}

func writeStatus(w http.ResponseWriter, req *http.Request, status int, kind, detail string) {
	render.Status(req, status)
	render.JSON(w, req, errorResponse{Error: kind, Detail: detail})
}

func requestFormat(req *http.Request) (report.Format, error) {
	format, err := report.ParseFormat(req.URL.Query().Get("format"))
	if err != nil {
		return "", err
	}
	if format == "" {
		format = report.FormatJSON
	}
	return format, nil
}

// rawInput unwraps a JSON string so that model output embedded as text is
// decoded like an object.
func rawInput(msg json.RawMessage) any {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	return []byte(msg)
}

func saveUpload(dir, field string, header *multipart.FileHeader, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = ".pdf"
	}
	path := filepath.Join(dir, field+ext)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return path, nil
}
