// Package archive stores named values in a NumPy .npz container: a ZIP file
// holding one .npy array per entry.
//
// Numeric scalars are stored as zero-dimensional arrays, slices as 1-D
// arrays and rectangular [][]float64 as 2-D arrays. Strings become
// zero-dimensional unicode arrays. Nested map[string]any values are stored
// as JSON text in a unicode array under the member "<name>.json.npy".
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// Member name suffixes
const (
	entrySuffix   = ".npy"  // appended to every entry name
	mappingSuffix = ".json" // precedes entrySuffix for JSON-encoded mappings
)

// maxDims is the highest array rank a state value can hold.
const maxDims = 2

var (
	// ErrUnsupported indicates a value or stored dtype the archive cannot handle.
	ErrUnsupported = errors.New("unsupported archive entry")

	// ErrFormat indicates a malformed container or entry.
	ErrFormat = errors.New("invalid archive")
)

// Entry is one named value.
type Entry struct {
	Name  string
	Value any
}

// Write stores entries in w as a deflate-compressed .npz container.
func Write(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		name, err := memberName(e)
		if err != nil {
			return err
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:   name,
			Method: zip.Deflate,
		})
		if err != nil {
			return err
		}
		if err := writeValue(fw, e.Value); err != nil {
			return fmt.Errorf("entry %q: %w", e.Name, err)
		}
	}
	return zw.Close()
}

// memberName returns the container member of e. Mappings carry the
// mapping suffix so they never read back as plain strings; a string entry
// whose name already ends in that suffix would be ambiguous.
func memberName(e Entry) (string, error) {
	switch e.Value.(type) {
	case map[string]any:
		return e.Name + mappingSuffix + entrySuffix, nil
	case string:
		if strings.HasSuffix(e.Name, mappingSuffix) {
			return "", fmt.Errorf("%w: string entry %q ends in %s", ErrUnsupported, e.Name, mappingSuffix)
		}
	}
	return e.Name + entrySuffix, nil
}

func writeValue(w io.Writer, v any) error {
	switch v := v.(type) {
	case float64, int64, bool, []float64:
		return npyio.Write(w, v)
	case int:
		return npyio.Write(w, int64(v))
	case [][]float64:
		m, err := dense(v)
		if err != nil {
			return err
		}
		return npyio.Write(w, m)
	case string:
		return writeUnicode(w, v)
	case map[string]any:
		text, err := encodeMapping(v)
		if err != nil {
			return err
		}
		return writeUnicode(w, text)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
}

func dense(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrUnsupported)
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: ragged matrix, row %d has %d columns, want %d", ErrUnsupported, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// Read decodes every entry of the container in r, in container order.
//
// Numeric arrays of any integer, float or bool dtype and either byte order
// are accepted. Integer scalars come back as int64, other numeric scalars as
// float64, 1-D arrays as []float64 and 2-D arrays as [][]float64.
func Read(r io.ReaderAt, size int64) ([]Entry, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		name := strings.TrimSuffix(f.Name, entrySuffix)
		v, err := readFile(f, strings.HasSuffix(name, mappingSuffix))
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", f.Name, err)
		}
		if _, ok := v.(map[string]any); ok {
			name = strings.TrimSuffix(name, mappingSuffix)
		}
		entries = append(entries, Entry{Name: name, Value: v})
	}
	return entries, nil
}

func readFile(f *zip.File, mapping bool) (any, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r, err := npyio.NewReader(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	descr := r.Header.Descr
	if strings.HasPrefix(descr.Type, unicodePrefix) && len(descr.Shape) == 0 {
		text, err := readUnicode(rc, descr.Type)
		if err != nil || !mapping {
			return text, err
		}
		return decodeMapping(text)
	}
	return readNumeric(r, dtypeKind(descr.Type), descr.Shape, descr.Fortran)
}

// dtypeKind strips the byte order character: "<i4" -> "i4".
func dtypeKind(dtype string) string {
	if dtype != "" && strings.ContainsRune("<>|=", rune(dtype[0])) {
		return dtype[1:]
	}
	return dtype
}

type number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

func readNumeric(r *npyio.Reader, kind string, shape []int, fortran bool) (any, error) {
	if len(shape) > maxDims {
		return nil, fmt.Errorf("%w: %d-dimensional array", ErrUnsupported, len(shape))
	}
	switch kind {
	case "f8":
		return readNumbers[float64](r, shape, fortran, false)
	case "f4":
		return readNumbers[float32](r, shape, fortran, false)
	case "i8":
		return readNumbers[int64](r, shape, fortran, true)
	case "i4":
		return readNumbers[int32](r, shape, fortran, true)
	case "i2":
		return readNumbers[int16](r, shape, fortran, true)
	case "i1":
		return readNumbers[int8](r, shape, fortran, true)
	case "u8":
		return readNumbers[uint64](r, shape, fortran, true)
	case "u4":
		return readNumbers[uint32](r, shape, fortran, true)
	case "u2":
		return readNumbers[uint16](r, shape, fortran, true)
	case "u1":
		return readNumbers[uint8](r, shape, fortran, true)
	case "b1":
		return readBools(r, shape, fortran)
	default:
		return nil, fmt.Errorf("%w: dtype %s with shape %v", ErrUnsupported, kind, shape)
	}
}

// readNumbers widens an array of T. Integral scalars stay integers.
func readNumbers[T number](r *npyio.Reader, shape []int, fortran, integral bool) (any, error) {
	if len(shape) == 0 {
		var v T
		if err := r.Read(&v); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		if integral {
			return int64(v), nil
		}
		return float64(v), nil
	}

	var flat []T
	if err := r.Read(&flat); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	vals := make([]float64, len(flat))
	for i, x := range flat {
		vals[i] = float64(x)
	}
	return shaped(vals, shape, fortran)
}

func readBools(r *npyio.Reader, shape []int, fortran bool) (any, error) {
	if len(shape) == 0 {
		var v bool
		if err := r.Read(&v); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		return v, nil
	}

	var flat []bool
	if err := r.Read(&flat); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	vals := make([]float64, len(flat))
	for i, b := range flat {
		if b {
			vals[i] = 1
		}
	}
	return shaped(vals, shape, fortran)
}

// shaped returns vals as a 1-D slice or as rows of a 2-D array stored in C
// or Fortran order.
func shaped(vals []float64, shape []int, fortran bool) (any, error) {
	switch len(shape) {
	case 1:
		if len(vals) != shape[0] {
			return nil, fmt.Errorf("%w: %d values for shape %v", ErrFormat, len(vals), shape)
		}
		return vals, nil
	case 2:
		rows, cols := shape[0], shape[1]
		if len(vals) != rows*cols {
			return nil, fmt.Errorf("%w: %d values for shape %v", ErrFormat, len(vals), shape)
		}
		out := make([][]float64, rows)
		for i := range rows {
			out[i] = make([]float64, cols)
			for j := range cols {
				if fortran {
					out[i][j] = vals[j*rows+i]
				} else {
					out[i][j] = vals[i*cols+j]
				}
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d-dimensional array", ErrUnsupported, len(shape))
	}
}
