// Package sheet writes coefficient tables to spreadsheet workbooks.
//
// Each column holds one coefficient row (b, then a) under a bold header cell;
// coefficient k of every row goes into spreadsheet row k+2.
package sheet

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Workbook layout
const (
	// SheetName is the worksheet receiving the coefficients.
	SheetName = "Sheet1"

	firstColumn = "A"
	columnWidth = 20
	headerRow   = 1
	firstRow    = 2
)

// ErrUnavailable indicates a workbook flavor without a writer in this build.
var ErrUnavailable = errors.New("spreadsheet writer not available")

// WriteXLSX writes rows as vertical columns of an Office Open XML workbook.
// headers[i] labels column i.
func WriteXLSX(w io.Writer, headers []string, rows [][]float64) (err error) {
	if len(headers) != len(rows) {
		return fmt.Errorf("sheet: %d headers for %d columns", len(headers), len(rows))
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, firstColumn, firstColumn, columnWidth); err != nil {
		return err
	}

	for col, label := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, headerRow)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, label); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetName, cell, cell, bold); err != nil {
			return err
		}
	}

	for col, row := range rows {
		for k, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, firstRow+k)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

// WriteXLS would write a legacy BIFF8 workbook. No pure Go BIFF8 writer is
// linked in, so it always fails; the registry never offers .xls.
func WriteXLS(io.Writer, []string, [][]float64) error {
	return ErrUnavailable
}
