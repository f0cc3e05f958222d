package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const currencyFormat = `"R$" #,##0.00`

// WriteTo serializes t in the requested format.
func WriteTo(w io.Writer, t Table, format Format) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// WriteXLSX writes a single-sheet workbook named "Escadinha <year>".
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName("Escadinha", t.Year)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	numFmt := currencyFormat
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("currency style: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	matrix := t.Matrix()
	for i, line := range matrix {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &line); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(t.Columns))
	if err != nil {
		return err
	}
	lastRow := len(matrix)
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetCellStyle(sheet, "C2", lastCol+strconv.Itoa(lastRow), money); err != nil {
		return fmt.Errorf("style amounts: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 32); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "C", lastCol, 16); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteCSV writes a semicolon separated file with decimal commas, the way
// pt-BR spreadsheet software expects it.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Header
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range append(append([]Row(nil), t.Rows...), t.Footer) {
		line := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			v, _ := r.Cell(c.Key)
			switch val := v.(type) {
			case int64:
				line[i] = decimalComma(val)
			case int:
				line[i] = strconv.Itoa(val)
			case string:
				line[i] = escapeFormula(val)
			}
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// escapeFormula prefixes text that a spreadsheet would evaluate as a
// formula with a single quote.
func escapeFormula(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

func decimalComma(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + strconv.FormatInt(cents/100, 10) + "," + strconv.FormatInt(100+cents%100, 10)[1:]
}
