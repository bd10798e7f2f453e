package filterio

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"reflect"
	"slices"

	pickle "github.com/kisielk/og-rek"
	"github.com/tphakala/go-filter-io/internal/archive"
)

// SaveState writes the whole filter state to path. chosen is the filter
// text picked from Descriptor(SaveState); when empty the extension of path
// decides. The returned path carries the resolved extension. An empty path
// is a cancelled selection: nothing happens and "" is returned.
//
// .npz stores every key as a named array; .pkl stores the state as one
// pickled object.
func (s *Session) SaveState(path, chosen string) (string, error) {
	return s.run(OpSaveState, path, chosen, func(target string, f Format) error {
		switch f {
		case FormatNPZ:
			entries := s.archiveEntries()
			return create(target, func(w *os.File) error {
				return archiveWriteError(archive.Write(w, entries))
			})
		case FormatPKL:
			return create(target, func(w *os.File) error {
				return savePickle(w, s.state)
			})
		default:
			return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
		}
	})
}

// LoadState reads a filter state from path.
//
// An .npz archive is merged: each stored key overwrites the current one and
// other keys are kept. The archive is decoded completely before anything is
// merged, so a failing load leaves the state untouched. A .pkl file replaces
// the state wholesale.
func (s *Session) LoadState(path, chosen string) (string, error) {
	return s.run(OpLoadState, path, chosen, func(target string, f Format) error {
		return open(target, func(r *os.File) error {
			switch f {
			case FormatNPZ:
				delta, err := loadArchive(r)
				if err != nil {
					return err
				}
				s.state.Merge(delta)
				return nil
			case FormatPKL:
				loaded, err := loadPickle(r)
				if err != nil {
					return err
				}
				s.state.Replace(loaded)
				return nil
			default:
				return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
			}
		})
	})
}

// archiveEntries converts the state into archive entries. Ragged sequences
// are zero-padded to a rectangle and nil values are skipped.
func (s *Session) archiveEntries() []archive.Entry {
	entries := make([]archive.Entry, 0, s.state.Len())
	for _, k := range s.state.Keys() {
		v, _ := s.state.Get(k)
		switch x := v.(type) {
		case nil:
			s.logger.Debug("skipping empty state entry", "key", k)
			continue
		case Coefficients:
			v = x.Padded()
		case [][]float64:
			v = padRows(x)
		}
		entries = append(entries, archive.Entry{Name: k, Value: v})
	}
	return entries
}

func padRows(rows [][]float64) [][]float64 {
	n := 0
	for _, r := range rows {
		n = max(n, len(r))
	}
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = make([]float64, n)
		copy(out[i], r)
	}
	return out
}

func loadArchive(f *os.File) (*State, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	entries, err := archive.Read(f, info.Size())
	if err != nil {
		return nil, archiveReadError(err)
	}

	delta := NewState()
	for _, e := range entries {
		delta.Set(e.Name, e.Value)
	}
	return delta, nil
}

func archiveWriteError(err error) error {
	if errors.Is(err, archive.ErrUnsupported) {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return classify(ErrIO, err)
}

func archiveReadError(err error) error {
	if errors.Is(err, archive.ErrFormat) || errors.Is(err, archive.ErrUnsupported) {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return classify(ErrIO, err)
}

// savePickle writes the state as the one-element filter list [state], the
// layout other tools expect, with protocol 2.
func savePickle(w io.Writer, st *State) error {
	dict := make(map[string]any, st.Len())
	for _, k := range st.Keys() {
		v, _ := st.Get(k)
		if c, ok := v.(Coefficients); ok {
			v = c.Rows()
		}
		dict[k] = v
	}

	enc := pickle.NewEncoderWithConfig(w, &pickle.EncoderConfig{Protocol: pickleProtocol})
	if err := enc.Encode([]any{dict}); err != nil {
		return classify(ErrIO, err)
	}
	return nil
}

// loadPickle decodes a pickled filter list or a bare filter dictionary.
// Values must be plain Python data; class instances such as numpy arrays
// fail with ErrDecode.
func loadPickle(r io.Reader) (*State, error) {
	raw, err := pickle.NewDecoder(r).Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	v := reflect.ValueOf(raw)
	if v.Kind() == reflect.Slice && v.Len() > 0 {
		v = reflect.ValueOf(v.Index(0).Interface())
	}
	if v.Kind() != reflect.Map {
		return nil, fmt.Errorf("%w: pickled object is %T, want a filter dictionary", ErrDecode, raw)
	}

	dict := make(map[string]any, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key, err := pickleKey(iter.Key().Interface())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		val, err := fromPickle(iter.Value().Interface())
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %w", ErrDecode, key, err)
		}
		dict[key] = val
	}

	keys := make([]string, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	st := NewState()
	for _, k := range keys {
		st.Set(k, dict[k])
	}
	return st, nil
}

var errPickleObject = errors.New("unsupported pickled object")

func pickleKey(k any) (string, error) {
	v, err := fromPickle(k)
	if err != nil {
		return "", fmt.Errorf("dictionary key: %w", err)
	}
	return fmt.Sprint(v), nil
}

// fromPickle converts decoded pickle values into state values: dicts become
// map[string]any, numeric lists []float64, lists of numeric lists
// [][]float64, and string-like, tuple and None types their plain Go forms.
func fromPickle(v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, int64, float64, string:
		return x, nil
	case int:
		return int64(x), nil
	case *big.Int:
		if x.IsInt64() {
			return x.Int64(), nil
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return f, nil
	case pickle.None:
		return nil, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := pickleKey(iter.Key().Interface())
			if err != nil {
				return nil, err
			}
			e, err := fromPickle(iter.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = e
		}
		return out, nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			item, err := fromPickle(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			items[i] = item
		}
		return collapse(items), nil
	default:
		return nil, fmt.Errorf("%w: %T", errPickleObject, v)
	}
}

// collapse narrows homogeneous numeric lists to []float64 and lists of those
// to [][]float64.
func collapse(items []any) any {
	if len(items) == 0 {
		return []float64{}
	}
	if nums, ok := numbers(items); ok {
		return nums
	}
	rows := make([][]float64, len(items))
	for i, it := range items {
		row, ok := it.([]float64)
		if !ok {
			return items
		}
		rows[i] = row
	}
	return rows
}

func numbers(items []any) ([]float64, bool) {
	out := make([]float64, len(items))
	for i, it := range items {
		switch n := it.(type) {
		case float64:
			out[i] = n
		case int64:
			out[i] = float64(n)
		default:
			return nil, false
		}
	}
	return out, true
}
