package filterio

import (
	"errors"
	"fmt"
	"os"

	"github.com/sbinet/npyio"
	"github.com/sbinet/npyio/npz"
	"github.com/tphakala/go-filter-io/internal/irwav"
	"github.com/tphakala/go-filter-io/internal/matfile"
	"gonum.org/v1/gonum/mat"
)

// ImportCoefficients reads coefficients from path and stores them under
// "ba" of the current state; no other key changes. Text and spreadsheet
// formats have no decoder and fail with ErrUnsupportedFormat before the file
// is opened.
func (s *Session) ImportCoefficients(path, chosen string) (string, error) {
	return s.run(OpImport, path, chosen, func(target string, f Format) error {
		var c Coefficients
		err := open(target, func(r *os.File) error {
			var err error
			c, err = decodeCoefficients(r, f)
			return err
		})
		if err != nil {
			return err
		}
		s.state.SetCoefficients(c)
		return nil
	})
}

func decodeCoefficients(r *os.File, f Format) (Coefficients, error) {
	switch f {
	case FormatMAT:
		m, err := matfile.Read(r, coefficientEntry)
		if err != nil {
			return Coefficients{}, matError(err)
		}
		return CoefficientsFromMatrix(m)
	case FormatNPY:
		return readNPY(r)
	case FormatNPZ:
		return readNPZ(r)
	case FormatWAV:
		taps, _, err := irwav.Read(r)
		if err != nil {
			if errors.Is(err, irwav.ErrFormat) {
				return Coefficients{}, fmt.Errorf("%w: %w", ErrDecode, err)
			}
			return Coefficients{}, classify(ErrIO, err)
		}
		return Coefficients{B: taps, A: []float64{1}}, nil
	default:
		return Coefficients{}, fmt.Errorf("%w: cannot import %s", ErrUnsupportedFormat, f)
	}
}

func matError(err error) error {
	if errors.Is(err, matfile.ErrFormat) || errors.Is(err, matfile.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return classify(ErrIO, err)
}

// readNPY reads the sole array of a .npy file. A 1-D array is a FIR numerator.
func readNPY(r *os.File) (Coefficients, error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return Coefficients{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	switch shape := nr.Header.Descr.Shape; len(shape) {
	case 1:
		var b []float64
		if err := nr.Read(&b); err != nil {
			return Coefficients{}, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return CoefficientsFromRows([][]float64{b})
	case 2:
		var m mat.Dense
		if err := nr.Read(&m); err != nil {
			return Coefficients{}, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return CoefficientsFromMatrix(&m)
	default:
		return Coefficients{}, fmt.Errorf("%w: %d-dimensional coefficient array", ErrDecode, len(shape))
	}
}

// readNPZ reads the "ba" entry of a .npz archive.
func readNPZ(r *os.File) (Coefficients, error) {
	info, err := r.Stat()
	if err != nil {
		return Coefficients{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	zr, err := npz.NewReader(r, info.Size())
	if err != nil {
		return Coefficients{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	name := npzEntry(zr.Keys())
	hdr := zr.Header(name)
	if name == "" || hdr == nil {
		return Coefficients{}, fmt.Errorf("%w: archive has no %q entry", ErrDecode, coefficientEntry)
	}
	switch len(hdr.Descr.Shape) {
	case 1:
		var b []float64
		if err := zr.Read(name, &b); err != nil {
			return Coefficients{}, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return CoefficientsFromRows([][]float64{b})
	case 2:
		var m mat.Dense
		if err := zr.Read(name, &m); err != nil {
			return Coefficients{}, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return CoefficientsFromMatrix(&m)
	default:
		return Coefficients{}, fmt.Errorf("%w: %d-dimensional coefficient array", ErrDecode, len(hdr.Descr.Shape))
	}
}

// npzEntry finds the coefficient entry, listed with or without the .npy
// member suffix.
func npzEntry(keys []string) string {
	for _, k := range keys {
		if k == coefficientEntry || k == coefficientEntry+npyMemberSuffix {
			return k
		}
	}
	return ""
}
