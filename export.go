package filterio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sbinet/npyio"
	"github.com/sbinet/npyio/npz"
	"github.com/tphakala/go-filter-io/internal/coe"
	"github.com/tphakala/go-filter-io/internal/fixpoint"
	"github.com/tphakala/go-filter-io/internal/irwav"
	"github.com/tphakala/go-filter-io/internal/matfile"
	"github.com/tphakala/go-filter-io/internal/sheet"
)

// ExportCoefficients writes the "ba" coefficients of the current state to
// path in the format chosen from Descriptor(ExportCoefficients).
//
// .coe and .wav are only offered for FIR filters, spreadsheet formats only
// when their codec is available. Matrix formats store b and a as a
// zero-padded 2xN array.
func (s *Session) ExportCoefficients(path, chosen string) (string, error) {
	return s.run(OpExport, path, chosen, func(target string, f Format) error {
		if f.FIROnly() && s.state.FilterType() != FilterFIR {
			return fmt.Errorf("%w: %s requires a FIR filter, have %q", ErrUnsupportedFormat, f, s.state.FilterType())
		}
		c, err := s.state.Coefficients()
		if err != nil {
			return err
		}
		return create(target, func(w *os.File) error {
			return s.encodeCoefficients(w, f, c)
		})
	})
}

func (s *Session) encodeCoefficients(w *os.File, f Format, c Coefficients) error {
	switch f {
	case FormatCSV:
		return classify(ErrIO, writeCSV(w, c.Rows(), s.config.CSVDelimiter))
	case FormatNPY:
		m, err := c.Matrix()
		if err != nil {
			return err
		}
		return classify(ErrIO, npyio.Write(w, m))
	case FormatNPZ:
		m, err := c.Matrix()
		if err != nil {
			return err
		}
		zw := npz.NewWriter(w)
		if err := zw.Write(coefficientEntry+npyMemberSuffix, m); err != nil {
			_ = zw.Close()
			return classify(ErrIO, err)
		}
		return classify(ErrIO, zw.Close())
	case FormatMAT:
		m, err := c.Matrix()
		if err != nil {
			return err
		}
		return classify(ErrIO, matfile.Write(w, s.config.Now(), matfile.Variable{Name: coefficientEntry, Value: m}))
	case FormatXLSX:
		return classify(ErrIO, sheet.WriteXLSX(w, []string{headerNumerator, headerDenom}, c.Padded()))
	case FormatXLS:
		return fmt.Errorf("%w: %w", ErrUnsupportedFormat, sheet.WriteXLS(w, []string{headerNumerator, headerDenom}, c.Padded()))
	case FormatCOE:
		return s.writeCOE(w, c.B)
	case FormatWAV:
		return s.writeImpulse(w, c.B)
	default:
		return fmt.Errorf("%w: cannot export %s", ErrUnsupportedFormat, f)
	}
}

// writeCSV writes each row as one line of %.18e fields.
func writeCSV(w io.Writer, rows [][]float64, delim string) error {
	bw := bufio.NewWriter(w)
	for _, row := range rows {
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = strconv.FormatFloat(v, 'e', csvFloatDigits, 64)
		}
		bw.WriteString(strings.Join(fields, delim))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// writeCOE quantizes the numerator with the state's word format and writes
// it in Xilinx .coe layout.
func (s *Session) writeCOE(w io.Writer, b []float64) error {
	spec, err := s.state.Quantization()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	q, err := fixpoint.Quantize(b, &spec)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	order, ok := s.state.Int(KeyOrder)
	if !ok {
		order = len(b) - 1
	}
	h := coe.Header{
		Product:      s.config.Product,
		URL:          s.config.ProductURL,
		Generated:    s.config.Now(),
		Order:        order,
		ResponseType: s.state.String(KeyResponseType),
		Radix:        q.Radix,
		Width:        q.WordLength,
	}
	return classify(ErrIO, coe.Write(w, h, q.Values))
}

// writeImpulse stores the numerator as a PCM impulse response at the state's
// sample rate.
func (s *Session) writeImpulse(w io.WriteSeeker, b []float64) error {
	rate, ok := s.state.Float(KeySampleRate)
	if !ok || rate < 1 {
		rate = defaultSampleRate
	}
	clipped, err := irwav.Write(w, b, int(rate), s.config.ImpulseBitDepth)
	if err != nil {
		return classify(ErrIO, err)
	}
	if clipped > 0 {
		s.logger.Warn("impulse response taps saturated", "taps", clipped)
	}
	return nil
}
