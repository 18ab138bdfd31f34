package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/rollcheck/internal/errors"
	"github.com/cleared-dev/rollcheck/internal/model"
)

// dateLayouts are tried in order. "1/2/2006" also accepts zero-padded values.
var dateLayouts = []string{
	"1/2/2006",
	model.DateFormat,
}

// unitReader pulls typed fields out of one unit mapping and reports failures
// with the unit's index.
type unitReader struct {
	kind  model.RollKind
	index int
	unit  map[string]any
}

func (r unitReader) fail(field, reason string, err error) error {
	return errors.NewNormalizationError(string(r.kind), r.index, field, reason, err)
}

func (r unitReader) value(field string) (any, error) {
	v, ok := r.unit[field]
	if !ok || v == nil {
		return nil, r.fail(field, "missing required field", nil)
	}
	return v, nil
}

func (r unitReader) text(field string) (string, error) {
	v, err := r.value(field)
	if err != nil {
		return "", err
	}
	s, ok := textOf(v)
	if !ok {
		return "", r.fail(field, fmt.Sprintf("expected text, got %T", v), nil)
	}
	return strings.TrimSpace(s), nil
}

func (r unitReader) amount(field string) (decimal.Decimal, error) {
	v, err := r.value(field)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := ParseAmount(v)
	if err != nil {
		return decimal.Zero, r.fail(field, "invalid number", err)
	}
	if d.IsNegative() {
		return decimal.Zero, r.fail(field, fmt.Sprintf("must not be negative, got %s", d), nil)
	}
	return d, nil
}

func (r unitReader) date(field string) (time.Time, error) {
	s, err := r.text(field)
	if err != nil {
		return time.Time{}, err
	}
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, r.fail(field, fmt.Sprintf("invalid date %q", s), nil)
	}
	return t, nil
}

func textOf(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return decimal.NewFromFloat(t).String(), true
	case int:
		return fmt.Sprintf("%d", t), true
	case int64:
		return fmt.Sprintf("%d", t), true
	}
	return "", false
}

// ParseAmount converts a JSON number or numeric string to a decimal. Currency
// symbols, thousands separators and surrounding spaces are ignored.
func ParseAmount(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case json.Number:
		return decimal.NewFromString(t.String())
	case float64:
		return decimal.NewFromFloat(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case string:
		s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(t))
		if s == "" {
			return decimal.Zero, errors.New("empty amount")
		}
		return decimal.NewFromString(s)
	}
	return decimal.Zero, fmt.Errorf("unsupported type %T", v)
}

// ParseDate parses a calendar date in M/D/YYYY or YYYY-MM-DD form.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
