// Package fixpoint converts floating-point coefficients into fixed-point
// integers for a given word format.
//
// A word format has QI integer bits, QF fractional bits and one sign bit, so
// the word length is QI + QF + 1. Values are scaled by 2^QF, quantized and
// then brought into the two's complement range [-2^(WL-1), 2^(WL-1)-1].
package fixpoint

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/simd/f64"
)

// Format is the display format of quantized values.
type Format string

// Display formats.
const (
	FormatFrac Format = "frac" // fractional decimal
	FormatDec  Format = "dec"  // integer decimal
	FormatHex  Format = "hex"
	FormatBin  Format = "bin"
	FormatCSD  Format = "csd" // canonical signed digit
)

// QuantMode selects how scaled values are rounded to integers.
type QuantMode string

// Quantization modes.
const (
	QuantRound QuantMode = "round" // round half up
	QuantFloor QuantMode = "floor"
	QuantFix   QuantMode = "fix" // toward zero
	QuantCeil  QuantMode = "ceil"
	QuantRint  QuantMode = "rint" // round half to even
)

// OverflowMode selects how out-of-range values are handled.
type OverflowMode string

// Overflow modes.
const (
	OverflowSat  OverflowMode = "sat"
	OverflowWrap OverflowMode = "wrap"
)

// ErrInvalidSpec indicates an unusable word format.
var ErrInvalidSpec = errors.New("invalid quantization spec")

// Spec describes a fixed-point word format.
type Spec struct {
	Format   Format
	QI       int // integer bits
	QF       int // fractional bits
	Quant    QuantMode
	Overflow OverflowMode
}

// WordLength returns QI + QF + 1.
func (s *Spec) WordLength() int {
	return s.QI + s.QF + signBits
}

// Validate checks that the word format can be represented.
func (s *Spec) Validate() error {
	if s.QF < 0 {
		return fmt.Errorf("%w: QF must be non-negative, got %d", ErrInvalidSpec, s.QF)
	}
	wl := s.WordLength()
	if wl < signBits || wl > maxWordLength {
		return fmt.Errorf("%w: word length %d outside [%d, %d]", ErrInvalidSpec, wl, signBits, maxWordLength)
	}
	switch s.Quant {
	case "", QuantRound, QuantFloor, QuantFix, QuantCeil, QuantRint:
	default:
		return fmt.Errorf("%w: unknown quantization mode %q", ErrInvalidSpec, s.Quant)
	}
	switch s.Overflow {
	case "", OverflowSat, OverflowWrap:
	default:
		return fmt.Errorf("%w: unknown overflow mode %q", ErrInvalidSpec, s.Overflow)
	}
	return nil
}

// Result holds quantized integers together with the declared word format.
type Result struct {
	Values     []int64
	WordLength int
	Radix      int
}

// Quantize converts values into integers scaled by 2^QF.
//
// While quantizing, spec.Format is forced to FormatDec so that the integers
// are plain decimal words; the caller's format is restored on return, error
// or not. Radix reports the caller's format: 10 for FormatDec, 16 otherwise.
func Quantize(values []float64, spec *Spec) (Result, error) {
	orig := spec.Format
	spec.Format = FormatDec
	defer func() { spec.Format = orig }()

	res := Result{
		WordLength: spec.WordLength(),
		Radix:      radixFor(orig),
	}
	if err := spec.Validate(); err != nil {
		return res, err
	}

	res.Values = make([]int64, len(values))
	if len(values) == 0 {
		return res, nil
	}

	scaled := make([]float64, len(values))
	f64.Scale(scaled, values, math.Ldexp(1, spec.QF))

	lo := -math.Ldexp(1, res.WordLength-signBits)
	hi := math.Ldexp(1, res.WordLength-signBits) - 1
	for i, x := range scaled {
		q := quantize(x, spec.Quant)
		res.Values[i] = int64(overflow(q, lo, hi, spec.Overflow))
	}
	return res, nil
}

func radixFor(f Format) int {
	if f == FormatDec {
		return radixDecimal
	}
	return radixHex
}

func quantize(x float64, mode QuantMode) float64 {
	if math.IsNaN(x) {
		return 0
	}
	switch mode {
	case QuantFloor:
		return math.Floor(x)
	case QuantFix:
		return math.Trunc(x)
	case QuantCeil:
		return math.Ceil(x)
	case QuantRint:
		return math.RoundToEven(x)
	default:
		return math.Floor(x + roundingOffset)
	}
}

// overflow maps q into [lo, hi]. Infinite values always saturate.
func overflow(q, lo, hi float64, mode OverflowMode) float64 {
	if q >= lo && q <= hi {
		return q
	}
	if mode == OverflowWrap && !math.IsInf(q, 0) {
		span := hi - lo + 1
		return math.Mod(math.Mod(q-lo, span)+span, span) + lo
	}
	return math.Max(lo, math.Min(hi, q))
}
