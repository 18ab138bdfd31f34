// Package rentroll holds a normalized rent roll keyed by unit number, and its
// CSV representation.
package rentroll

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cleared-dev/rollcheck/internal/errors"
	"github.com/cleared-dev/rollcheck/internal/model"
)

// Roll is one side's unit records with lookup by unit number.
type Roll struct {
	kind   model.RollKind
	units  []model.UnitRecord
	byUnit map[string]int
}

// New builds a Roll. A unit number that appears twice is a data-quality
// error and fails with a ReconciliationError rather than picking one.
func New(kind model.RollKind, units []model.UnitRecord) (*Roll, error) {
	byUnit := make(map[string]int, len(units))
	for i, u := range units {
		if u.UnitNumber == "" {
			return nil, errors.NewReconciliationError(string(kind), "", fmt.Sprintf("unit at index %d has no unit number", i))
		}
		if first, ok := byUnit[u.UnitNumber]; ok {
			return nil, errors.NewReconciliationError(string(kind), u.UnitNumber,
				fmt.Sprintf("duplicate unit number (indexes %d and %d)", first, i))
		}
		byUnit[u.UnitNumber] = i
	}
	return &Roll{kind: kind, units: units, byUnit: byUnit}, nil
}

// Kind returns which side the roll describes.
func (r *Roll) Kind() model.RollKind {
	return r.kind
}

// Units returns all records in their original order.
func (r *Roll) Units() []model.UnitRecord {
	return r.units
}

// Len returns the number of units.
func (r *Roll) Len() int {
	return len(r.units)
}

// Get returns the unit with the given number.
func (r *Roll) Get(unitNumber string) (model.UnitRecord, bool) {
	i, ok := r.byUnit[unitNumber]
	if !ok {
		return model.UnitRecord{}, false
	}
	return r.units[i], true
}

// Has reports whether a unit number exists.
func (r *Roll) Has(unitNumber string) bool {
	_, ok := r.byUnit[unitNumber]
	return ok
}

// Load reads a units CSV file into a Roll.
func Load(kind model.RollKind, path string) (*Roll, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening units file: %w", err)
	}
	defer f.Close()

	units, err := ReadUnits(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return New(kind, units)
}

// Save writes the roll to a units CSV file, creating parent directories.
func (r *Roll) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating units dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating units file: %w", err)
	}
	defer f.Close()

	if err := WriteUnits(f, r.units); err != nil {
		return fmt.Errorf("writing units file: %w", err)
	}
	return nil
}
