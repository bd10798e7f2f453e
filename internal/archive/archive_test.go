package archive

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, entries []Entry) []Entry {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, entries))
	got, err := Read(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return got
}

func TestWriteRead_RoundTrip(t *testing.T) {
	entries := []Entry{
		{"ft", "FIR"},
		{"N", int64(10)},
		{"f_S", 48000.0},
		{"fc_valid", true},
		{"F_PB", []float64{0.1, 0.2}},
		{"ba", [][]float64{{0.25, 0.5, 0.25}, {1, 0, 0}}},
		{"name", "Tiefpaß ♫"},
		{"q_coeff", map[string]any{"frmt": "hex", "QI": int64(0), "QF": int64(15), "scale": 0.5}},
	}

	got := roundTrip(t, entries)
	if diff := cmp.Diff(entries, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_IntIsStoredAsInt64(t *testing.T) {
	got := roundTrip(t, []Entry{{"N", 4}})
	require.Len(t, got, 1)
	assert.Equal(t, int64(4), got[0].Value)
}

func TestWrite_EmptyString(t *testing.T) {
	got := roundTrip(t, []Entry{{"rt", ""}})
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].Value)
}

func TestWrite_Unsupported(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"ragged", [][]float64{{1, 2}, {1}}},
		{"empty_matrix", [][]float64{}},
		{"complex", complex(1, 2)},
		{"nil", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Write(&buf, []Entry{{"x", tt.value}})
			require.ErrorIs(t, err, ErrUnsupported)
		})
	}
}

func TestRead_NotAnArchive(t *testing.T) {
	data := []byte("definitely not a zip file")
	_, err := Read(bytes.NewReader(data), int64(len(data)))
	require.ErrorIs(t, err, ErrFormat)
}

func TestWriteUnicode_HeaderAlignment(t *testing.T) {
	for _, s := range []string{"", "a", "LP", "a much longer response type string"} {
		var buf bytes.Buffer
		require.NoError(t, writeUnicode(&buf, s))

		b := buf.Bytes()
		require.Equal(t, npyMagic, string(b[:len(npyMagic)]))
		hlen := int(binary.LittleEndian.Uint16(b[len(npyMagic)+2:]))
		assert.Zero(t, (npyPreamble+hlen)%npyAlignment, "header for %q not aligned", s)
		assert.Equal(t, byte('\n'), b[npyPreamble+hlen-1])
	}
}

func TestDecodeMapping(t *testing.T) {
	m, err := decodeMapping(`{"a": 1, "b": 2.5, "c": [1, 2], "d": {"e": "x"}}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": int64(1),
		"b": 2.5,
		"c": []float64{1, 2},
		"d": map[string]any{"e": "x"},
	}, m)

	_, err = decodeMapping("LP")
	require.ErrorIs(t, err, ErrFormat)
	_, err = decodeMapping("{not json")
	require.ErrorIs(t, err, ErrFormat)
	_, err = decodeMapping("null")
	require.ErrorIs(t, err, ErrFormat)
}

func TestWriteRead_JSONLookingStringStaysString(t *testing.T) {
	entries := []Entry{
		{"info", `{"QI": 1}`},
		{"q_coeff", map[string]any{"QI": int64(1)}},
	}
	got := roundTrip(t, entries)
	if diff := cmp.Diff(entries, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_StringWithMappingSuffix(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []Entry{{"notes.json", "text"}})
	require.ErrorIs(t, err, ErrUnsupported)

	// Numeric entries with the suffix are unambiguous.
	got := roundTrip(t, []Entry{{"x.json", 1.5}})
	assert.Equal(t, []Entry{{"x.json", 1.5}}, got)
}

// rawMember writes one hand-built .npy member, as other tools produce them.
func rawMember(t *testing.T, zw *zip.Writer, name, descr string, fortran bool, shape []int, order binary.ByteOrder, data any) {
	t.Helper()
	var buf bytes.Buffer
	writeHeader(&buf, descr, fortran, shape)
	require.NoError(t, binary.Write(&buf, order, data))
	fw, err := zw.Create(name + entrySuffix)
	require.NoError(t, err)
	_, err = fw.Write(buf.Bytes())
	require.NoError(t, err)
}

func readRaw(t *testing.T, build func(zw *zip.Writer)) ([]Entry, error) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	build(zw)
	require.NoError(t, zw.Close())
	return Read(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
}

func TestRead_ForeignDtypes(t *testing.T) {
	le, be := binary.LittleEndian, binary.BigEndian
	got, err := readRaw(t, func(zw *zip.Writer) {
		rawMember(t, zw, "N", "<i4", false, nil, le, int32(4))
		rawMember(t, zw, "F_PB", "<f4", false, []int{2}, le, []float32{0.5, 0.25})
		rawMember(t, zw, "m", "<i4", false, []int{2, 2}, le, []int32{1, 2, 3, 4})
		rawMember(t, zw, "be", ">f8", false, []int{2}, be, []float64{1.5, -2})
		rawMember(t, zw, "flags", "|b1", false, []int{2}, le, []bool{true, false})
		rawMember(t, zw, "u", "|u1", false, nil, le, uint8(7))
		rawMember(t, zw, "h", "<i2", false, []int{3}, le, []int16{-1, 0, 1})
		rawMember(t, zw, "fo", "<f8", true, []int{2, 2}, le, []float64{1, 3, 2, 4})
	})
	require.NoError(t, err)

	want := []Entry{
		{"N", int64(4)},
		{"F_PB", []float64{0.5, 0.25}},
		{"m", [][]float64{{1, 2}, {3, 4}}},
		{"be", []float64{1.5, -2}},
		{"flags", []float64{1, 0}},
		{"u", int64(7)},
		{"h", []float64{-1, 0, 1}},
		{"fo", [][]float64{{1, 2}, {3, 4}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded entries mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_RejectsUndecodable(t *testing.T) {
	tests := []struct {
		name    string
		build   func(t *testing.T, zw *zip.Writer)
		wantErr error
	}{
		{
			name: "complex_dtype",
			build: func(t *testing.T, zw *zip.Writer) {
				rawMember(t, zw, "z", "<c16", false, nil, binary.LittleEndian, []float64{1, 1})
			},
			wantErr: ErrUnsupported,
		},
		{
			name: "three_dimensional",
			build: func(t *testing.T, zw *zip.Writer) {
				rawMember(t, zw, "cube", "<f8", false, []int{1, 1, 1}, binary.LittleEndian, []float64{1})
			},
			wantErr: ErrUnsupported,
		},
		{
			name: "broken_mapping",
			build: func(t *testing.T, zw *zip.Writer) {
				fw, err := zw.Create("q" + mappingSuffix + entrySuffix)
				require.NoError(t, err)
				require.NoError(t, writeUnicode(fw, "{not json"))
			},
			wantErr: ErrFormat,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readRaw(t, func(zw *zip.Writer) { tt.build(t, zw) })
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
