package filterio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-filter-io/internal/fixpoint"
)

func TestState_KeyOrder(t *testing.T) {
	s := NewState()
	s.Set("b", 1.0)
	s.Set("a", 2.0)
	s.Set("b", 3.0)
	assert.Equal(t, []string{"b", "a"}, s.Keys())

	s.Delete("b")
	s.Delete("missing")
	assert.Equal(t, []string{"a"}, s.Keys())
	assert.Equal(t, 1, s.Len())
}

func TestState_MergeAndReplace(t *testing.T) {
	base := NewState()
	base.Set("keep", "x")
	base.Set("over", 1.0)

	delta := NewState()
	delta.Set("over", 2.0)
	delta.Set("new", true)

	merged := base.Clone()
	merged.Merge(delta)
	assert.Equal(t, []string{"keep", "over", "new"}, merged.Keys())
	v, _ := merged.Get("over")
	assert.Equal(t, 2.0, v)

	replaced := base.Clone()
	replaced.Replace(delta)
	assert.Equal(t, []string{"over", "new"}, replaced.Keys())
	_, ok := replaced.Get("keep")
	assert.False(t, ok)
}

func TestState_CloneIsDeep(t *testing.T) {
	s := NewState()
	s.Set("ba", [][]float64{{1, 2}, {1, 0}})
	s.Set("q", map[string]any{"QF": int64(3)})

	c := s.Clone()
	s.values["ba"].([][]float64)[0][0] = 99
	s.values["q"].(map[string]any)["QF"] = int64(9)

	ba, _ := c.Get("ba")
	assert.Equal(t, [][]float64{{1, 2}, {1, 0}}, ba)
	q, _ := c.Get("q")
	assert.Equal(t, int64(3), q.(map[string]any)["QF"])
}

func TestState_TypedAccessors(t *testing.T) {
	s := NewState()
	s.Set("i", int64(4))
	s.Set("f", 4.0)
	s.Set("half", 4.5)
	s.Set("s", "LP")

	n, ok := s.Int("i")
	assert.True(t, ok)
	assert.Equal(t, 4, n)
	n, ok = s.Int("f")
	assert.True(t, ok)
	assert.Equal(t, 4, n)
	_, ok = s.Int("half")
	assert.False(t, ok)

	x, ok := s.Float("i")
	assert.True(t, ok)
	assert.Equal(t, 4.0, x)
	_, ok = s.Float("s")
	assert.False(t, ok)

	assert.Equal(t, "LP", s.String("s"))
	assert.Empty(t, s.String("i"))
}

func TestDefaultState(t *testing.T) {
	s := DefaultState()
	assert.Equal(t, FilterFIR, s.FilterType())

	c, err := s.Coefficients()
	require.NoError(t, err)
	assert.Len(t, c.B, defaultOrder+1)
	assert.InDelta(t, 1.0, sum(c.B), 1e-12)
	assert.Equal(t, 1.0, c.A[0])

	spec, err := s.Quantization()
	require.NoError(t, err)
	assert.Equal(t, 16, spec.WordLength())
}

func TestState_Coefficients(t *testing.T) {
	s := NewState()
	_, err := s.Coefficients()
	require.ErrorIs(t, err, ErrEncode)

	s.Set(KeyCoefficients, []float64{1, 1})
	c, err := s.Coefficients()
	require.NoError(t, err)
	assert.Equal(t, Coefficients{B: []float64{1, 1}, A: []float64{1}}, c)

	s.Set(KeyCoefficients, "nope")
	_, err = s.Coefficients()
	require.ErrorIs(t, err, ErrEncode)

	s.SetCoefficients(Coefficients{B: []float64{2}, A: []float64{1, 0.5}})
	ba, _ := s.Get(KeyCoefficients)
	assert.Equal(t, [][]float64{{2}, {1, 0.5}}, ba)
}

func TestState_Quantization(t *testing.T) {
	tests := []struct {
		name    string
		q       any
		want    fixpoint.Spec
		wantErr bool
	}{
		{
			name: "absent",
			q:    nil,
			want: fixpoint.Spec{Format: fixpoint.FormatFrac, QF: 15, Quant: fixpoint.QuantRound, Overflow: fixpoint.OverflowSat},
		},
		{
			name: "float_word_lengths",
			q:    map[string]any{"frmt": "hex", "QI": 2.0, "QF": 13.0, "quant": "floor", "ovfl": "wrap"},
			want: fixpoint.Spec{Format: fixpoint.FormatHex, QI: 2, QF: 13, Quant: fixpoint.QuantFloor, Overflow: fixpoint.OverflowWrap},
		},
		{name: "text_QF", q: map[string]any{"QF": "15"}, wantErr: true},
		{name: "unknown_mode", q: map[string]any{"quant": "dither"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			if tt.q != nil {
				s.Set(KeyQuantization, tt.q)
			}
			spec, err := s.Quantization()
			if tt.wantErr {
				require.ErrorIs(t, err, fixpoint.ErrInvalidSpec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec)
		})
	}
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}
