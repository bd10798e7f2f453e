package archive

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// .npy header layout (format version 1.0)
const (
	npyMagic      = "\x93NUMPY"
	npyMajor      = 1
	npyMinor      = 0
	npyPreamble   = len(npyMagic) + 2 + 2 // magic, version, header length
	npyAlignment  = 64
	unicodePrefix = "<U"
	bytesPerRune  = 4
)

// writeHeader writes a version 1.0 .npy preamble and header dictionary,
// padded so the data section starts on an aligned offset.
func writeHeader(buf *bytes.Buffer, descr string, fortran bool, shape []int) {
	order := "False"
	if fortran {
		order = "True"
	}
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = strconv.Itoa(d)
	}
	tuple := "(" + strings.Join(dims, ", ") + ")"
	if len(shape) == 1 {
		tuple = "(" + dims[0] + ",)"
	}

	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': %s, }", descr, order, tuple)
	total := npyPreamble + len(dict) + 1
	pad := (npyAlignment - total%npyAlignment) % npyAlignment
	header := dict + strings.Repeat(" ", pad) + "\n"

	buf.WriteString(npyMagic)
	buf.WriteByte(npyMajor)
	buf.WriteByte(npyMinor)
	_ = binary.Write(buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
}

// writeUnicode stores s as a zero-dimensional little-endian UCS-4 array.
func writeUnicode(w io.Writer, s string) error {
	n := max(utf8.RuneCountInString(s), 1)

	var buf bytes.Buffer
	writeHeader(&buf, unicodePrefix+strconv.Itoa(n), false, nil)

	data := make([]uint32, n)
	i := 0
	for _, r := range s {
		data[i] = uint32(r)
		i++
	}
	_ = binary.Write(&buf, binary.LittleEndian, data)

	_, err := w.Write(buf.Bytes())
	return err
}

// readUnicode reads the data section of a zero-dimensional "<Un" array.
// Trailing NUL code points are padding and are dropped.
func readUnicode(r io.Reader, dtype string) (string, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(dtype, unicodePrefix))
	if err != nil || n < 0 {
		return "", fmt.Errorf("%w: dtype %s", ErrFormat, dtype)
	}

	raw := make([]byte, n*bytesPerRune)
	if _, err := io.ReadFull(r, raw); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFormat, err)
	}

	var sb strings.Builder
	for i := 0; i < len(raw); i += bytesPerRune {
		cp := binary.LittleEndian.Uint32(raw[i:])
		if cp == 0 {
			break
		}
		sb.WriteRune(rune(cp))
	}
	return sb.String(), nil
}

func encodeMapping(m map[string]any) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	return string(b), nil
}

// decodeMapping decodes text written by encodeMapping. Integral JSON
// numbers come back as int64, all others as float64.
func decodeMapping(text string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: mapping entry: %w", ErrFormat, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: mapping entry is null", ErrFormat)
	}
	return normalizeJSON(m).(map[string]any), nil
}

func normalizeJSON(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, x := range v {
			v[k] = normalizeJSON(x)
		}
		return v
	case []any:
		nums := make([]float64, 0, len(v))
		for i, x := range v {
			v[i] = normalizeJSON(x)
			switch n := v[i].(type) {
			case int64:
				nums = append(nums, float64(n))
			case float64:
				nums = append(nums, n)
			}
		}
		if len(nums) == len(v) {
			return nums
		}
		return v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	default:
		return v
	}
}
