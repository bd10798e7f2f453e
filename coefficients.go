package filterio

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Coefficients holds the numerator B and denominator A of a rational
// transfer function. The rows may differ in length.
type Coefficients struct {
	B []float64
	A []float64
}

// CoefficientsFromRows interprets rows as {b, a}. A single row is a FIR
// numerator with a = [1].
func CoefficientsFromRows(rows [][]float64) (Coefficients, error) {
	switch len(rows) {
	case 1:
		return Coefficients{B: slices.Clone(rows[0]), A: []float64{1}}, nil
	case coefficientRows:
		return Coefficients{B: slices.Clone(rows[0]), A: slices.Clone(rows[1])}, nil
	default:
		return Coefficients{}, fmt.Errorf("%w: coefficient array has %d rows, want 1 or %d",
			ErrDecode, len(rows), coefficientRows)
	}
}

// CoefficientsFromMatrix reads a 1xN or 2xN matrix.
func CoefficientsFromMatrix(m mat.Matrix) (Coefficients, error) {
	r, c := m.Dims()
	rows := make([][]float64, r)
	for i := range r {
		rows[i] = make([]float64, c)
		mat.Row(rows[i], i, m)
	}
	return CoefficientsFromRows(rows)
}

// Rows returns copies of {b, a}.
func (c Coefficients) Rows() [][]float64 {
	return [][]float64{slices.Clone(c.B), slices.Clone(c.A)}
}

// Padded returns {b, a} with the shorter row zero-padded, which describes
// the same transfer function.
func (c Coefficients) Padded() [][]float64 {
	n := max(len(c.B), len(c.A))
	b := make([]float64, n)
	a := make([]float64, n)
	copy(b, c.B)
	copy(a, c.A)
	return [][]float64{b, a}
}

// Matrix returns the padded coefficients as a 2xN matrix.
func (c Coefficients) Matrix() (*mat.Dense, error) {
	rows := c.Padded()
	n := len(rows[0])
	if n == 0 {
		return nil, fmt.Errorf("%w: empty coefficient array", ErrEncode)
	}
	return mat.NewDense(coefficientRows, n, append(rows[0], rows[1]...)), nil
}
