// Package matfile reads and writes numeric matrices in the MATLAB level 5
// MAT-file format.
//
// Only real numeric arrays are supported. Writing always produces
// uncompressed little-endian double matrices, which MATLAB and scipy.io load
// directly. Reading additionally accepts big-endian files, compressed
// (miCOMPRESSED) elements and any integer or single-precision storage type.
package matfile

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrFormat indicates a malformed or unsupported MAT-file.
	ErrFormat = errors.New("invalid MAT-file")

	// ErrNotFound indicates that the requested variable is absent.
	ErrNotFound = errors.New("variable not found")
)

// Variable is one named matrix of a workspace.
type Variable struct {
	Name  string
	Value mat.Matrix
}

// Write stores vars in w as a level 5 MAT-file.
func Write(w io.Writer, created time.Time, vars ...Variable) error {
	if err := writeHeader(w, created); err != nil {
		return err
	}
	for _, v := range vars {
		if err := writeMatrix(w, v); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(w io.Writer, created time.Time) error {
	var hdr [headerSize]byte
	text := headerText + created.Format(ctimeLayout)
	copy(hdr[:headerTextSize], []byte(text+strings.Repeat(" ", headerTextSize)))
	binary.LittleEndian.PutUint16(hdr[headerTextSize+subsysSize:], version)
	copy(hdr[headerSize-2:], "IM")
	_, err := w.Write(hdr[:])
	return err
}

func writeMatrix(w io.Writer, v Variable) error {
	if v.Name == "" {
		return fmt.Errorf("%w: empty variable name", ErrFormat)
	}
	rows, cols := v.Value.Dims()

	var body bytes.Buffer
	le := binary.LittleEndian

	// Array flags
	writeTag(&body, miUINT32, 2*4)
	_ = binary.Write(&body, le, [2]uint32{classDouble, 0})

	// Dimensions
	writeTag(&body, miINT32, dimsLength*4)
	_ = binary.Write(&body, le, [dimsLength]int32{int32(rows), int32(cols)})

	// Name
	if len(v.Name) <= smallDataSize {
		_ = binary.Write(&body, le, uint32(len(v.Name))<<smallSizeShift|miINT8)
		var data [smallDataSize]byte
		copy(data[:], v.Name)
		body.Write(data[:])
	} else {
		writeTag(&body, miINT8, len(v.Name))
		body.WriteString(v.Name)
		body.Write(make([]byte, padding(len(v.Name))))
	}

	// Real part, column-major
	writeTag(&body, miDOUBLE, rows*cols*8)
	for c := range cols {
		for r := range rows {
			_ = binary.Write(&body, le, v.Value.At(r, c))
		}
	}

	var tag bytes.Buffer
	writeTag(&tag, miMATRIX, body.Len())
	if _, err := w.Write(tag.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

func writeTag(buf *bytes.Buffer, typ, size int) {
	_ = binary.Write(buf, binary.LittleEndian, [2]uint32{uint32(typ), uint32(size)})
}

func padding(n int) int {
	return (alignment - n%alignment) % alignment
}

// Read returns the matrix stored under name.
func Read(r io.Reader, name string) (*mat.Dense, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: short header", ErrFormat)
	}

	var order binary.ByteOrder
	switch string(data[headerSize-2 : headerSize]) {
	case "IM":
		order = binary.LittleEndian
	case "MI":
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: bad endian indicator", ErrFormat)
	}

	d := decoder{order: order}
	return d.find(data[headerSize:], name)
}

type decoder struct {
	order binary.ByteOrder
}

// element is one decoded data element.
type element struct {
	typ  uint32
	data []byte
}

// next splits the first data element off buf. Compressed elements are not
// padded; all others are aligned to 8 bytes.
func (d decoder) next(buf []byte) (element, []byte, error) {
	if len(buf) < tagSize {
		return element{}, nil, fmt.Errorf("%w: truncated tag", ErrFormat)
	}
	first := d.order.Uint32(buf)
	if size := first >> smallSizeShift; size != 0 {
		if size > smallDataSize {
			return element{}, nil, fmt.Errorf("%w: small element of %d bytes", ErrFormat, size)
		}
		return element{typ: first & 0xffff, data: buf[smallDataSize : smallDataSize+size]}, buf[tagSize:], nil
	}

	typ := first
	size := int(d.order.Uint32(buf[smallDataSize:]))
	buf = buf[tagSize:]
	if size > len(buf) {
		return element{}, nil, fmt.Errorf("%w: element of %d bytes exceeds file", ErrFormat, size)
	}
	el := element{typ: typ, data: buf[:size]}
	if typ != miCOMPRESSED {
		size += padding(size)
	}
	if size > len(buf) {
		size = len(buf)
	}
	return el, buf[size:], nil
}

func (d decoder) find(buf []byte, name string) (*mat.Dense, error) {
	for len(buf) > 0 {
		el, rest, err := d.next(buf)
		if err != nil {
			return nil, err
		}
		buf = rest

		if el.typ == miCOMPRESSED {
			inner, err := inflate(el.data)
			if err != nil {
				return nil, err
			}
			if m, err := d.find(inner, name); !errors.Is(err, ErrNotFound) {
				return m, err
			}
			continue
		}
		if el.typ != miMATRIX {
			continue
		}
		m, found, err := d.matrix(el.data, name)
		if found {
			return m, err
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return out, nil
}

// matrix decodes a miMATRIX body. found reports whether the array is named
// name; decoding errors are only reported for the requested array.
func (d decoder) matrix(buf []byte, name string) (m *mat.Dense, found bool, err error) {
	var parts [4]element
	for i := range parts {
		if parts[i], buf, err = d.next(buf); err != nil {
			return nil, false, err
		}
		if i == 2 && string(parts[2].data) != name {
			return nil, false, nil
		}
	}

	flags, dims, re := parts[0], parts[1], parts[3]
	if len(flags.data) < 4 {
		return nil, true, fmt.Errorf("%w: short array flags", ErrFormat)
	}
	word := d.order.Uint32(flags.data)
	class := word & classMask
	if class < classDouble || class > classUint64 {
		return nil, true, fmt.Errorf("%w: %q is not a numeric array (class %d)", ErrFormat, name, class)
	}
	if word&complexFlag != 0 {
		return nil, true, fmt.Errorf("%w: %q is complex", ErrFormat, name)
	}

	shape, err := d.ints(dims)
	if err != nil {
		return nil, true, err
	}
	rows, cols, err := matrixShape(shape)
	if err != nil {
		return nil, true, err
	}

	values, err := d.floats(re)
	if err != nil {
		return nil, true, err
	}
	if len(values) != rows*cols {
		return nil, true, fmt.Errorf("%w: %d values for %dx%d array", ErrFormat, len(values), rows, cols)
	}

	// Column-major to row-major.
	rowMajor := make([]float64, len(values))
	for c := range cols {
		for r := range rows {
			rowMajor[r*cols+c] = values[c*rows+r]
		}
	}
	return mat.NewDense(rows, cols, rowMajor), true, nil
}

// matrixShape folds trailing singleton dimensions away.
func matrixShape(shape []int) (rows, cols int, err error) {
	for len(shape) > dimsLength && shape[len(shape)-1] == 1 {
		shape = shape[:len(shape)-1]
	}
	if len(shape) != dimsLength {
		return 0, 0, fmt.Errorf("%w: %d-dimensional array", ErrFormat, len(shape))
	}
	if shape[0] <= 0 || shape[1] <= 0 {
		return 0, 0, fmt.Errorf("%w: empty array", ErrFormat)
	}
	return shape[0], shape[1], nil
}

func (d decoder) ints(el element) ([]int, error) {
	if el.typ != miINT32 || len(el.data)%4 != 0 {
		return nil, fmt.Errorf("%w: bad dimensions element", ErrFormat)
	}
	out := make([]int, len(el.data)/4)
	for i := range out {
		out[i] = int(int32(d.order.Uint32(el.data[i*4:])))
	}
	return out, nil
}

func (d decoder) floats(el element) ([]float64, error) {
	size := elementSize(el.typ)
	if size == 0 {
		return nil, fmt.Errorf("%w: unsupported numeric type %d", ErrFormat, el.typ)
	}
	b := el.data
	out := make([]float64, len(b)/size)
	for i := range out {
		p := b[i*size:]
		switch el.typ {
		case miINT8:
			out[i] = float64(int8(p[0]))
		case miUINT8:
			out[i] = float64(p[0])
		case miINT16:
			out[i] = float64(int16(d.order.Uint16(p)))
		case miUINT16:
			out[i] = float64(d.order.Uint16(p))
		case miINT32:
			out[i] = float64(int32(d.order.Uint32(p)))
		case miUINT32:
			out[i] = float64(d.order.Uint32(p))
		case miINT64:
			out[i] = float64(int64(d.order.Uint64(p)))
		case miUINT64:
			out[i] = float64(d.order.Uint64(p))
		case miSINGLE:
			out[i] = float64(math.Float32frombits(d.order.Uint32(p)))
		case miDOUBLE:
			out[i] = math.Float64frombits(d.order.Uint64(p))
		}
	}
	return out, nil
}

func elementSize(typ uint32) int {
	switch typ {
	case miINT8, miUINT8:
		return 1
	case miINT16, miUINT16:
		return 2
	case miINT32, miUINT32, miSINGLE:
		return 4
	case miDOUBLE, miINT64, miUINT64:
		return 8
	default:
		return 0
	}
}
