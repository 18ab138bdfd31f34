package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cleared-dev/rollcheck/internal/errors"
	"github.com/cleared-dev/rollcheck/internal/model"
)

// Decode turns an upstream extraction result into a RawExtraction. The
// document-understanding step may hand back either an already-parsed mapping
// or JSON text, so both are accepted. JSON numbers are kept as json.Number.
func Decode(kind model.RollKind, input any) (model.RawExtraction, error) {
	switch v := input.(type) {
	case model.RawExtraction:
		if v == nil {
			return nil, docError(kind, "", "extraction is empty", nil)
		}
		return v, nil
	case map[string]any:
		if v == nil {
			return nil, docError(kind, "", "extraction is empty", nil)
		}
		return model.RawExtraction(v), nil
	case string:
		return decodeJSON(kind, []byte(v))
	case []byte:
		return decodeJSON(kind, v)
	case json.RawMessage:
		return decodeJSON(kind, v)
	case nil:
		return nil, docError(kind, "", "extraction is empty", nil)
	default:
		return nil, docError(kind, "", fmt.Sprintf("unsupported extraction type %T", input), nil)
	}
}

func decodeJSON(kind model.RollKind, data []byte) (model.RawExtraction, error) {
	data = stripCodeFence(bytes.TrimSpace(data))
	if len(data) == 0 {
		return nil, docError(kind, "", "extraction is empty", nil)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, docError(kind, "", "extraction is not a JSON object", err)
	}
	if raw == nil {
		return nil, docError(kind, "", "extraction is not a JSON object", nil)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, docError(kind, "", "unexpected data after JSON object", nil)
	}
	return model.RawExtraction(raw), nil
}

// stripCodeFence removes a surrounding ```json ... ``` block, which language
// models sometimes add around structured output.
func stripCodeFence(data []byte) []byte {
	if !bytes.HasPrefix(data, []byte("```")) {
		return data
	}
	nl := bytes.IndexByte(data, '\n')
	if nl < 0 {
		return data
	}
	body := bytes.TrimSpace(data[nl+1:])
	body = bytes.TrimSuffix(body, []byte("```"))
	return bytes.TrimSpace(body)
}

// unitsOf returns the units list of a raw extraction as field mappings.
func unitsOf(kind model.RollKind, raw model.RawExtraction) ([]map[string]any, error) {
	v, ok := raw[model.FieldUnits]
	if !ok || v == nil {
		return nil, docError(kind, model.FieldUnits, "missing required field", nil)
	}
	list, ok := v.([]any)
	if !ok {
		if typed, ok := v.([]map[string]any); ok {
			return typed, nil
		}
		return nil, docError(kind, model.FieldUnits, fmt.Sprintf("expected a list, got %T", v), nil)
	}

	units := make([]map[string]any, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, errors.NewNormalizationError(string(kind), i, "", fmt.Sprintf("expected an object, got %T", item), nil)
		}
		units[i] = m
	}
	return units, nil
}

func docError(kind model.RollKind, field, reason string, err error) error {
	return errors.NewNormalizationError(string(kind), errors.DocumentIndex, field, reason, err)
}
