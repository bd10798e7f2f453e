package filterio

import (
	"fmt"
	"slices"

	"github.com/tphakala/go-filter-io/internal/filetype"
)

// Format identifies a file format. Extensions are resolved to a Format once
// and every codec switches on it.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatMAT
	FormatNPY
	FormatNPZ
	FormatPKL
	FormatCOE
	FormatWAV
	FormatXLS
	FormatXLSX
)

type formatInfo struct {
	ext     string
	label   string
	pattern string // wildcard group as offered in descriptors
	firOnly bool
}

var formats = map[Format]formatInfo{
	FormatCSV:  {ext: ".csv", label: "CSV", pattern: "(*.csv)"},
	FormatMAT:  {ext: ".mat", label: "Matlab-Workspace", pattern: "(*.mat)"},
	FormatNPY:  {ext: ".npy", label: "Binary Numpy Array", pattern: "(*.npy)"},
	FormatNPZ:  {ext: ".npz", label: "Zipped Binary Numpy Array", pattern: "(*.npz)"},
	FormatPKL:  {ext: ".pkl", label: "Pickled", pattern: "(*.pkl)"},
	FormatCOE:  {ext: ".coe", label: "Xilinx coefficient format", pattern: "(*.coe)", firOnly: true},
	FormatWAV:  {ext: ".wav", label: "Impulse Response WAV", pattern: "(*.wav)", firOnly: true},
	FormatXLS:  {ext: ".xls", label: "Excel Worksheet", pattern: "(.xls)"},
	FormatXLSX: {ext: ".xlsx", label: "Excel 2007 Worksheet", pattern: "(.xlsx)"},
}

// Extension returns the canonical extension, including the dot.
func (f Format) Extension() string {
	return formats[f].ext
}

// FIROnly reports whether the format only exists for FIR filters.
func (f Format) FIROnly() bool {
	return formats[f].firOnly
}

// Filter returns the descriptor group of f, e.g. "CSV (*.csv)".
func (f Format) Filter() string {
	info := formats[f]
	return info.label + " " + info.pattern
}

// String returns the label of f.
func (f Format) String() string {
	if info, ok := formats[f]; ok {
		return info.label
	}
	return "unknown"
}

// FormatForExtension maps a canonical extension to its Format.
func FormatForExtension(ext string) Format {
	for f, info := range formats {
		if info.ext == ext {
			return f
		}
	}
	return FormatUnknown
}

// Direction is the kind of persistence operation.
type Direction int

const (
	SaveState Direction = iota
	LoadState
	ExportCoefficients
	ImportCoefficients
)

func (d Direction) String() string {
	switch d {
	case SaveState:
		return "save state"
	case LoadState:
		return "load state"
	case ExportCoefficients:
		return "export coefficients"
	case ImportCoefficients:
		return "import coefficients"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Dispatch tables, in descriptor order. Optional spreadsheet formats come
// last so that ".xlsx" is listed after ".xls".
var tables = map[Direction][]Format{
	SaveState:          {FormatNPZ, FormatPKL},
	LoadState:          {FormatNPZ, FormatPKL},
	ExportCoefficients: {FormatCSV, FormatMAT, FormatNPY, FormatNPZ, FormatCOE, FormatWAV, FormatXLS, FormatXLSX},
	ImportCoefficients: {FormatMAT, FormatNPY, FormatNPZ, FormatWAV},
}

// Capabilities lists the optional codecs linked into this build.
type Capabilities struct {
	XLS  bool // legacy BIFF8 workbooks
	XLSX bool // Office Open XML workbooks
}

// DetectCapabilities reports the optional codecs available. XLSX is backed
// by excelize; there is no BIFF8 writer, so XLS is never available.
func DetectCapabilities() Capabilities {
	return Capabilities{XLS: false, XLSX: true}
}

// Registry maps extensions to formats per direction, honoring the
// capability set it was created with.
type Registry struct {
	caps Capabilities
}

// NewRegistry returns a registry for caps.
func NewRegistry(caps Capabilities) *Registry {
	return &Registry{caps: caps}
}

// Capabilities returns the capability set of r.
func (r *Registry) Capabilities() Capabilities {
	return r.caps
}

func (r *Registry) available(f Format) bool {
	switch f {
	case FormatXLS:
		return r.caps.XLS
	case FormatXLSX:
		return r.caps.XLSX
	default:
		return true
	}
}

// Formats returns the formats offered for dir and a filter of type
// filterType, in descriptor order.
func (r *Registry) Formats(dir Direction, filterType string) []Format {
	var out []Format
	for _, f := range tables[dir] {
		if !r.available(f) || (f.FIROnly() && filterType != FilterFIR) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Descriptor renders the file-type descriptor offered for dir, e.g.
// "Zipped Binary Numpy Array (*.npz);;Pickled (*.pkl)".
func (r *Registry) Descriptor(dir Direction, filterType string) string {
	fs := r.Formats(dir, filterType)
	groups := make([]string, len(fs))
	for i, f := range fs {
		groups[i] = f.Filter()
	}
	return filetype.Join(groups...)
}

// Dispatch resolves ext for dir. It fails with ErrUnsupportedFormat when ext
// is not in the table of dir or its codec is unavailable.
func (r *Registry) Dispatch(ext string, dir Direction) (Format, error) {
	f := FormatForExtension(ext)
	if f == FormatUnknown || !slices.Contains(tables[dir], f) {
		return FormatUnknown, fmt.Errorf("%w: %q cannot %s", ErrUnsupportedFormat, ext, dir)
	}
	if !r.available(f) {
		return FormatUnknown, fmt.Errorf("%w: no %s codec available", ErrUnsupportedFormat, f)
	}
	return f, nil
}
