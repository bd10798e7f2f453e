package filterio

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/tphakala/go-filter-io/internal/fixpoint"
)

// State is the filter parameter/result dictionary: an ordered mapping from
// string keys to scalars (float64, int64, bool, string), numeric sequences
// ([]float64, [][]float64) and nested settings (map[string]any).
//
// A State is not safe for concurrent use; callers serialize access.
type State struct {
	keys   []string
	values map[string]any
}

// NewState returns an empty state.
func NewState() *State {
	return &State{values: make(map[string]any)}
}

// DefaultState returns the state a fresh session starts with: a 10th order
// moving-average FIR lowpass quantized to Q0.15.
func DefaultState() *State {
	taps := defaultOrder + 1
	b := make([]float64, taps)
	a := make([]float64, taps)
	for i := range b {
		b[i] = 1 / float64(taps)
	}
	a[0] = 1

	s := NewState()
	s.Set(KeyName, "Moving average")
	s.Set(KeyFilterType, FilterFIR)
	s.Set(KeyResponseType, "LP")
	s.Set(KeyOrder, int64(defaultOrder))
	s.Set(KeySampleRate, defaultSampleRate)
	s.Set(KeyCoefficients, [][]float64{b, a})
	s.Set(KeyQuantization, map[string]any{
		quantKeyFormat:   string(fixpoint.FormatFrac),
		quantKeyQI:       int64(0),
		quantKeyQF:       int64(defaultQF),
		quantKeyQuant:    string(fixpoint.QuantRound),
		quantKeyOverflow: string(fixpoint.OverflowSat),
	})
	return s
}

// Get returns the value stored under key.
func (s *State) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores v under key. New keys are appended to the key order.
func (s *State) Set(key string, v any) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = v
}

// Delete removes key.
func (s *State) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.keys = slices.DeleteFunc(s.keys, func(k string) bool { return k == key })
}

// Keys returns the keys in insertion order.
func (s *State) Keys() []string {
	return slices.Clone(s.keys)
}

// Len returns the number of keys.
func (s *State) Len() int {
	return len(s.keys)
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := NewState()
	for _, k := range s.keys {
		c.Set(k, cloneValue(s.values[k]))
	}
	return c
}

// Merge overwrites every key of delta in s. Keys absent from delta keep
// their values.
func (s *State) Merge(delta *State) {
	for _, k := range delta.keys {
		s.Set(k, delta.values[k])
	}
}

// Replace makes s an exact copy of other, dropping keys other lacks.
func (s *State) Replace(other *State) {
	s.keys = slices.Clone(other.keys)
	s.values = maps.Clone(other.values)
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case []float64:
		return slices.Clone(v)
	case [][]float64:
		out := make([][]float64, len(v))
		for i, row := range v {
			out[i] = slices.Clone(row)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, x := range v {
			out[k] = cloneValue(x)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = cloneValue(x)
		}
		return out
	default:
		return v
	}
}

// String returns the value under key, or "" when absent or not a string.
func (s *State) String(key string) string {
	v, _ := s.values[key].(string)
	return v
}

// Int returns the value under key as an integer.
func (s *State) Int(key string) (int, bool) {
	return toInt(s.values[key])
}

// Float returns the value under key as a float64.
func (s *State) Float(key string) (float64, bool) {
	switch v := s.values[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// FilterType returns the "ft" entry.
func (s *State) FilterType() string {
	return s.String(KeyFilterType)
}

// Coefficients returns the "ba" entry.
func (s *State) Coefficients() (Coefficients, error) {
	v, ok := s.values[KeyCoefficients]
	if !ok {
		return Coefficients{}, fmt.Errorf("%w: state has no %q entry", ErrEncode, KeyCoefficients)
	}
	switch v := v.(type) {
	case Coefficients:
		return v, nil
	case [][]float64:
		return CoefficientsFromRows(v)
	case []float64:
		return CoefficientsFromRows([][]float64{v})
	default:
		return Coefficients{}, fmt.Errorf("%w: %q holds %T", ErrEncode, KeyCoefficients, v)
	}
}

// SetCoefficients stores c under "ba" as a two-row sequence.
func (s *State) SetCoefficients(c Coefficients) {
	s.Set(KeyCoefficients, c.Rows())
}

// Quantization builds the coefficient word format from "q_coeff". Missing
// settings fall back to Q0.15 with rounding and saturation.
func (s *State) Quantization() (fixpoint.Spec, error) {
	spec := fixpoint.Spec{
		Format:   fixpoint.FormatFrac,
		QF:       defaultQF,
		Quant:    fixpoint.QuantRound,
		Overflow: fixpoint.OverflowSat,
	}
	q, ok := s.values[KeyQuantization].(map[string]any)
	if !ok {
		return spec, nil
	}

	if f, ok := q[quantKeyFormat].(string); ok {
		spec.Format = fixpoint.Format(f)
	}
	if m, ok := q[quantKeyQuant].(string); ok {
		spec.Quant = fixpoint.QuantMode(m)
	}
	if m, ok := q[quantKeyOverflow].(string); ok {
		spec.Overflow = fixpoint.OverflowMode(m)
	}
	if v, present := q[quantKeyQI]; present {
		qi, ok := toInt(v)
		if !ok {
			return spec, fmt.Errorf("%w: QI is %T", fixpoint.ErrInvalidSpec, v)
		}
		spec.QI = qi
	}
	if v, present := q[quantKeyQF]; present {
		qf, ok := toInt(v)
		if !ok {
			return spec, fmt.Errorf("%w: QF is %T", fixpoint.ErrInvalidSpec, v)
		}
		spec.QF = qf
	}
	return spec, spec.Validate()
}

func toInt(v any) (int, bool) {
	switch v := v.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}
