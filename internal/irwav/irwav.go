// Package irwav stores FIR coefficients as a mono PCM impulse-response WAV
// file, the form convolution engines load filters in.
package irwav

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/tphakala/simd/f64"
)

// PCM constants
const (
	monoChannels    = 1
	pcmFormat       = 1 // WAVE_FORMAT_PCM
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0
)

// ErrFormat indicates an unreadable or unsupported WAV file.
var ErrFormat = errors.New("invalid impulse response WAV")

// Write encodes taps as mono PCM. Values outside [-1, 1] saturate at full
// scale; the number of saturated taps is returned. NaN taps are written
// as silence.
func Write(w io.WriteSeeker, taps []float64, sampleRate, bitDepth int) (clipped int, err error) {
	maxVal, err := maxValue(bitDepth)
	if err != nil {
		return 0, err
	}
	if sampleRate <= 0 {
		return 0, fmt.Errorf("%w: sample rate %d", ErrFormat, sampleRate)
	}

	scaled := make([]float64, len(taps))
	f64.Scale(scaled, taps, maxVal)

	data := make([]int, len(scaled))
	for i, v := range scaled {
		switch {
		case math.IsNaN(v):
			v = 0
		case v > maxVal:
			v = maxVal
			clipped++
		case v < -maxVal-1:
			v = -maxVal - 1
			clipped++
		}
		data[i] = int(math.Round(v))
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, monoChannels, pcmFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: monoChannels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return clipped, fmt.Errorf("failed to write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return clipped, fmt.Errorf("failed to finalize WAV: %w", err)
	}
	return clipped, nil
}

// Read decodes the first channel of a PCM WAV file into taps scaled to
// [-1, 1].
func Read(r io.ReadSeeker) (taps []float64, sampleRate int, err error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: not a PCM WAV file", ErrFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	maxVal, err := maxValue(int(dec.BitDepth))
	if err != nil {
		return nil, 0, err
	}

	channels := max(buf.Format.NumChannels, monoChannels)
	frames := len(buf.Data) / channels
	taps = make([]float64, frames)
	for i := range frames {
		taps[i] = float64(buf.Data[i*channels])
	}
	f64.Scale(taps, taps, 1/maxVal)
	return taps, int(dec.SampleRate), nil
}

func maxValue(bitDepth int) (float64, error) {
	switch bitDepth {
	case bitsPerSample16:
		return maxInt16, nil
	case bitsPerSample24:
		return maxInt24, nil
	case bitsPerSample32:
		return maxInt32, nil
	default:
		return 0, fmt.Errorf("%w: unsupported bit depth %d", ErrFormat, bitDepth)
	}
}
