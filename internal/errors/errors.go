// Package errors provides the error taxonomy for rollcheck. Each type carries
// enough context (document side, unit index, field) to be shown to a user
// verbatim, and matches its sentinel with errors.Is.
package errors

import (
	"errors"
	"fmt"
)

// New is the standard library errors.New.
var New = errors.New

// Is is the standard library errors.Is.
var Is = errors.Is

// As is the standard library errors.As.
var As = errors.As

// Sentinel errors matched by the typed errors below.
var (
	// ErrNormalization indicates a raw extraction could not be normalized.
	ErrNormalization = errors.New("normalization failed")

	// ErrReconciliation indicates two datasets could not be reconciled.
	ErrReconciliation = errors.New("reconciliation failed")

	// ErrConfiguration indicates an invalid tunable or setting.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrExtraction indicates the document-understanding collaborator failed.
	ErrExtraction = errors.New("extraction failed")
)

// DocumentIndex is the UnitIndex used for problems that are not tied to one unit.
const DocumentIndex = -1

// NormalizationError reports a malformed or missing field in a raw extraction.
type NormalizationError struct {
	Side      string // "actual" or "argus"
	UnitIndex int    // zero-based; DocumentIndex for document-level problems
	Field     string
	Reason    string
	Err       error
}

// Error implements the error interface
func (e *NormalizationError) Error() string {
	where := "document"
	if e.UnitIndex != DocumentIndex {
		where = fmt.Sprintf("unit %d", e.UnitIndex)
	}
	msg := fmt.Sprintf("%s rent roll: %s", e.Side, where)
	if e.Field != "" {
		msg += fmt.Sprintf(", field %s", e.Field)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements errors.Unwrap
func (e *NormalizationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *NormalizationError) Is(target error) bool {
	return target == ErrNormalization
}

// NewNormalizationError creates a NormalizationError for one unit field.
func NewNormalizationError(side string, unitIndex int, field, reason string, err error) *NormalizationError {
	return &NormalizationError{Side: side, UnitIndex: unitIndex, Field: field, Reason: reason, Err: err}
}

// ReconciliationError reports a dataset that cannot be reconciled as given,
// such as a unit number appearing twice on one side.
type ReconciliationError struct {
	Side       string
	UnitNumber string
	Reason     string
}

// Error implements the error interface
func (e *ReconciliationError) Error() string {
	if e.UnitNumber != "" {
		return fmt.Sprintf("%s rent roll: unit %s: %s", e.Side, e.UnitNumber, e.Reason)
	}
	return fmt.Sprintf("%s rent roll: %s", e.Side, e.Reason)
}

// Is implements errors.Is support
func (e *ReconciliationError) Is(target error) bool {
	return target == ErrReconciliation
}

// NewReconciliationError creates a new ReconciliationError
func NewReconciliationError(side, unitNumber, reason string) *ReconciliationError {
	return &ReconciliationError{Side: side, UnitNumber: unitNumber, Reason: reason}
}

// ConfigurationError reports an invalid setting such as a negative threshold.
type ConfigurationError struct {
	Setting string
	Value   string
	Reason  string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("configuration %s=%q: %s", e.Setting, e.Value, e.Reason)
	}
	return fmt.Sprintf("configuration %s: %s", e.Setting, e.Reason)
}

// Is implements errors.Is support
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(setting, value, reason string) *ConfigurationError {
	return &ConfigurationError{Setting: setting, Value: value, Reason: reason}
}

// ExtractionError wraps a failure from a document-understanding backend.
type ExtractionError struct {
	Backend string
	Path    string
	Err     error
}

// Error implements the error interface
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s with %s: %v", e.Path, e.Backend, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

// NewExtractionError creates a new ExtractionError
func NewExtractionError(backend, path string, err error) *ExtractionError {
	return &ExtractionError{Backend: backend, Path: path, Err: err}
}
