package filterio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	pickle "github.com/kisielk/og-rek"
	"github.com/sbinet/npyio/npz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-filter-io/internal/testutil"
)

func sampleState() *State {
	s := NewState()
	s.Set(KeyName, "Bandpass")
	s.Set(KeyFilterType, FilterIIR)
	s.Set(KeyResponseType, "BP")
	s.Set(KeyOrder, int64(2))
	s.Set(KeySampleRate, 44100.0)
	s.Set("F_PB", []float64{0.1, 0.2})
	s.Set("wdg_fil_valid", true)
	s.Set(KeyCoefficients, [][]float64{{0.2, 0, -0.2}, {1, -1.1, 0.6}})
	s.Set(KeyQuantization, map[string]any{"frmt": "hex", "QI": int64(1), "QF": int64(14)})
	return s
}

func TestSaveLoadState_ArchiveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.npz")
	orig := sampleState()
	h := newHarness(t, orig.Clone())

	_, err := h.SaveState(path, "Zipped Binary Numpy Array (*.npz)")
	require.NoError(t, err)

	// Load into a state that differs on every saved key and has extras.
	other := DefaultState()
	other.Set("unrelated", "keep me")
	h2 := newHarness(t, other)
	_, err = h2.LoadState(path, "Zipped Binary Numpy Array (*.npz)")
	require.NoError(t, err)

	st := h2.State()
	for _, k := range orig.Keys() {
		want, _ := orig.Get(k)
		got, ok := st.Get(k)
		require.True(t, ok, "key %q missing", k)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("key %q mismatch (-want +got):\n%s", k, diff)
		}
	}
	v, ok := st.Get("unrelated")
	require.True(t, ok)
	assert.Equal(t, "keep me", v)
}

func TestSaveState_ArchivePadsRaggedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fir.npz")
	s := NewState()
	s.Set(KeyCoefficients, [][]float64{{0.25, 0.5, 0.25}, {1}})
	h := newHarness(t, s)

	_, err := h.SaveState(path, ".npz")
	require.NoError(t, err)

	h2 := newHarness(t, NewState())
	_, err = h2.LoadState(path, ".npz")
	require.NoError(t, err)
	got, _ := h2.State().Get(KeyCoefficients)
	assert.Equal(t, [][]float64{{0.25, 0.5, 0.25}, {1, 0, 0}}, got)
}

func TestSaveState_SkipsNilValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nil.npz")
	s := NewState()
	s.Set("nothing", nil)
	s.Set(KeyOrder, int64(3))
	h := newHarness(t, s)

	_, err := h.SaveState(path, ".npz")
	require.NoError(t, err)

	h2 := newHarness(t, NewState())
	_, err = h2.LoadState(path, ".npz")
	require.NoError(t, err)
	assert.Equal(t, []string{KeyOrder}, h2.State().Keys())
}

func TestSaveLoadState_PickleReplacesWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.pkl")
	orig := sampleState()
	h := newHarness(t, orig.Clone())

	_, err := h.SaveState(path, "Pickled (*.pkl)")
	require.NoError(t, err)

	other := DefaultState()
	other.Set("unrelated", "dropped")
	h2 := newHarness(t, other)
	_, err = h2.LoadState(path, "Pickled (*.pkl)")
	require.NoError(t, err)

	st := h2.State()
	_, ok := st.Get("unrelated")
	assert.False(t, ok, "pickle load must replace the whole state")
	assert.ElementsMatch(t, orig.Keys(), st.Keys())
	for _, k := range orig.Keys() {
		want, _ := orig.Get(k)
		got, _ := st.Get(k)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("key %q mismatch (-want +got):\n%s", k, diff)
		}
	}
}

func TestLoadState_PickledBareDictionary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.pkl")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := pickle.NewEncoderWithConfig(f, &pickle.EncoderConfig{Protocol: pickleProtocol})
	require.NoError(t, enc.Encode(map[string]any{
		"ft": "FIR",
		"N":  int64(2),
		"ba": [][]float64{{1, 2, 1}, {1, 0, 0}},
	}))
	require.NoError(t, f.Close())

	h := newHarness(t, nil)
	_, err = h.LoadState(path, ".pkl")
	require.NoError(t, err)

	assert.Equal(t, []string{"N", "ba", "ft"}, h.State().Keys())
	c, err := h.State().Coefficients()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 1}, c.B)
}

func TestLoadState_FailuresLeaveStateUntouched(t *testing.T) {
	dir := t.TempDir()

	corrupt := filepath.Join(dir, "corrupt.npz")
	require.NoError(t, os.WriteFile(corrupt, []byte("PK not really a zip"), 0o644))
	badPickle := filepath.Join(dir, "bad.pkl")
	require.NoError(t, os.WriteFile(badPickle, []byte{0x80, 0x02, 0xff}, 0o644))
	listPickle := filepath.Join(dir, "list.pkl")
	f, err := os.Create(listPickle)
	require.NoError(t, err)
	require.NoError(t, pickle.NewEncoder(f).Encode([]any{int64(1), int64(2)}))
	require.NoError(t, f.Close())

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"missing_archive", filepath.Join(dir, "missing.npz"), ErrIO},
		{"missing_pickle", filepath.Join(dir, "missing.pkl"), ErrIO},
		{"corrupt_archive", corrupt, ErrDecode},
		{"corrupt_pickle", badPickle, ErrDecode},
		{"pickle_not_a_filter", listPickle, ErrDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil, func(c *Config) { c.SaveDir = "/initial" })
			before := h.State().Clone()

			_, err := h.LoadState(tt.path, "")
			require.ErrorIs(t, err, tt.wantErr)

			if diff := cmp.Diff(before, h.State(), cmp.AllowUnexported(State{})); diff != "" {
				t.Errorf("state changed (-before +after):\n%s", diff)
			}
			assert.Equal(t, "/initial", h.Dir())
			assert.Empty(t, h.events)
		})
	}
}

func TestSaveState_IOFailureLeavesStateUntouched(t *testing.T) {
	missingDir := filepath.Join(t.TempDir(), "does", "not", "exist")

	for _, ext := range []string{".npz", ".pkl"} {
		t.Run(ext, func(t *testing.T) {
			h := newHarness(t, sampleState(), func(c *Config) { c.SaveDir = "/initial" })
			before := h.State().Clone()

			_, err := h.SaveState(filepath.Join(missingDir, "f"+ext), ext)
			require.ErrorIs(t, err, ErrIO)

			if diff := cmp.Diff(before, h.State(), cmp.AllowUnexported(State{})); diff != "" {
				t.Errorf("state changed (-before +after):\n%s", diff)
			}
			assert.Equal(t, "/initial", h.Dir())
		})
	}
}

func TestSaveState_UnencodableValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.npz")
	s := NewState()
	s.Set("z", complex(1, 1))
	h := newHarness(t, s)

	_, err := h.SaveState(path, ".npz")
	require.ErrorIs(t, err, ErrEncode)
	testutil.AssertNoFile(t, path)
}

func TestFromPickle(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"rows", []any{[]any{int64(1), 2.5}, []any{int64(3)}}, [][]float64{{1, 2.5}, {3}}},
		{"mixed_list", []any{"a", int64(1)}, []any{"a", int64(1)}},
		{"empty_list", []any{}, []float64{}},
		{"dict", map[any]any{"k": 7}, map[string]any{"k": int64(7)}},
		{"none", pickle.None{}, nil},
		{"tuple", pickle.Tuple{int64(1), int64(2)}, []float64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fromPickle(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromPickle_ClassInstances(t *testing.T) {
	ndarray := pickle.Call{
		Callable: pickle.Class{Module: "numpy.core.multiarray", Name: "_reconstruct"},
		Args:     pickle.Tuple{int64(1)},
	}
	for _, in := range []any{
		ndarray,
		pickle.Class{Module: "numpy", Name: "ndarray"},
		[]any{int64(1), ndarray},
		map[any]any{"nested": ndarray},
	} {
		_, err := fromPickle(in)
		require.ErrorIs(t, err, errPickleObject, "%T", in)
	}
}

func TestLoadState_PickledNumpyArrayRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numpy.pkl")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := pickle.NewEncoderWithConfig(f, &pickle.EncoderConfig{Protocol: pickleProtocol})
	require.NoError(t, enc.Encode([]any{map[string]any{
		"ba": pickle.Call{
			Callable: pickle.Class{Module: "numpy.core.multiarray", Name: "_reconstruct"},
			Args:     pickle.Tuple{int64(1)},
		},
		"ft": "FIR",
	}}))
	require.NoError(t, f.Close())

	h := newHarness(t, nil)
	before := h.State().Clone()

	_, err = h.LoadState(path, ".pkl")
	require.ErrorIs(t, err, ErrDecode)
	assert.Contains(t, err.Error(), `key "ba"`)
	if diff := cmp.Diff(before, h.State(), cmp.AllowUnexported(State{})); diff != "" {
		t.Errorf("state changed (-before +after):\n%s", diff)
	}
	assert.Empty(t, h.events)
}

func TestSaveLoadState_ArchiveKeepsJSONLookingStrings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text.npz")
	s := NewState()
	s.Set("info", `{"QI": 1}`)
	s.Set(KeyQuantization, map[string]any{"QI": int64(1)})
	h := newHarness(t, s)

	_, err := h.SaveState(path, ".npz")
	require.NoError(t, err)

	h2 := newHarness(t, NewState())
	_, err = h2.LoadState(path, ".npz")
	require.NoError(t, err)

	info, _ := h2.State().Get("info")
	assert.Equal(t, `{"QI": 1}`, info)
	q, _ := h2.State().Get(KeyQuantization)
	assert.Equal(t, map[string]any{"QI": int64(1)}, q)
	assert.Equal(t, []string{"info", KeyQuantization}, h2.State().Keys())
}

func TestLoadState_ArchiveFromOtherTools(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foreign.npz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := npz.NewWriter(f)
	require.NoError(t, zw.Write("N.npy", []int32{4}))
	require.NoError(t, zw.Write("F_PB.npy", []float32{0.5, 0.25}))
	require.NoError(t, zw.Write("f_S.npy", float32(8000)))
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	h := newHarness(t, DefaultState())
	_, err = h.LoadState(path, ".npz")
	require.NoError(t, err)

	st := h.State()
	n, _ := st.Get(KeyOrder)
	assert.Equal(t, []float64{4}, n)
	pb, _ := st.Get("F_PB")
	assert.Equal(t, []float64{0.5, 0.25}, pb)
	fs, ok := st.Float(KeySampleRate)
	require.True(t, ok)
	assert.Equal(t, 8000.0, fs)
}
