// Package coe writes Xilinx CORE Generator coefficient (.coe) files for
// distributed arithmetic FIR filters.
package coe

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"time"
)

// TimeLayout is the timestamp layout of the header, e.g. "07-March-2025 14:05:09".
const TimeLayout = "02-January-2006 15:04:05"

const (
	ruleLine = "; #############################################################################\n"
	title    = "; XILINX CORE Generator(tm) Distributed Arithmetic FIR filter coefficient (.COE) file\n"
)

// Header holds the descriptive part of a .coe file.
type Header struct {
	Product      string // e.g. "go-filter-io 0.1"
	URL          string
	Generated    time.Time
	Order        int
	ResponseType string
	Radix        int
	Width        int // coefficient word length in bits
}

// Write emits the header followed by the CoefData block. Every value is
// terminated by ",\n" except the last, which is terminated by ";" with no
// trailing newline.
func Write(w io.Writer, h Header, values []int64) error {
	bw := bufio.NewWriter(w)

	fmt.Fprint(bw, ruleLine)
	fmt.Fprint(bw, ";\n")
	fmt.Fprint(bw, title)
	fmt.Fprint(bw, ";\n")
	fmt.Fprintf(bw, "; Generated by %s (%s)\n", h.Product, h.URL)
	fmt.Fprint(bw, ";\n")
	fmt.Fprintf(bw, "; %s\n", h.Generated.Format(TimeLayout))
	fmt.Fprint(bw, ";\n")
	fmt.Fprintf(bw, "; Filter order = %d, type: %s\n", h.Order, h.ResponseType)
	fmt.Fprint(bw, ruleLine)
	fmt.Fprintf(bw, "Radix = %d;\n", h.Radix)
	fmt.Fprintf(bw, "Coefficient_width = %d;\n", h.Width)

	bw.WriteString("CoefData = ")
	for i, v := range values {
		bw.WriteString(strconv.FormatInt(v, 10))
		if i < len(values)-1 {
			bw.WriteString(",\n")
		}
	}
	bw.WriteString(";")

	return bw.Flush()
}
