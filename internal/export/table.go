// Package export assembles escadinha reports into spreadsheet tables and
// serializes them to XLSX and CSV.
package export

import (
	"errors"
	"fmt"

	"metas/internal/core"
)

// ErrNoData is returned when there is nothing to export.
var ErrNoData = errors.New("no data to export")

// Column keys of the fixed leading and total columns.
const (
	KeyProducer = "produtor"
	KeyYear     = "ano"
	KeyTotal    = "total"
	FooterLabel = "TOTAL"
)

// Format is a file serialization supported by WriteTo.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

type (
	Column struct {
		Key    string
		Header string
	}

	// Row is one producer's line: raw months, their sum and the staircase.
	Row struct {
		Producer    string
		Year        int
		Monthly     [core.MonthsInYear]int64
		Total       int64
		Accumulated [core.MonthsInYear]int64
	}

	Table struct {
		Year    int
		Columns []Column
		Rows    []Row
		Footer  Row
	}
)

// AccumulatedKey is the synthetic column key of the staircase value for a month.
func AccumulatedKey(month int) string {
	return "acumulado_" + core.MonthKeys[month]
}

// Columns returns the fixed column layout of an escadinha export.
func Columns() []Column {
	cols := []Column{{Key: KeyProducer, Header: "Produtor"}, {Key: KeyYear, Header: "Ano"}}
	for i := 0; i < core.MonthsInYear; i++ {
		cols = append(cols, Column{Key: core.MonthKeys[i], Header: core.MonthLabels[i]})
	}
	cols = append(cols, Column{Key: KeyTotal, Header: "Total"})
	for i := 0; i < core.MonthsInYear; i++ {
		cols = append(cols, Column{Key: AccumulatedKey(i), Header: "Acumulado " + core.MonthLabels[i]})
	}
	return cols
}

// BuildTable turns escadinha reports into export rows plus a totals footer.
func BuildTable(year int, reports []core.Escadinha) (Table, error) {
	if len(reports) == 0 {
		return Table{}, fmt.Errorf("%w for %d", ErrNoData, year)
	}
	t := Table{Year: year, Columns: Columns(), Footer: Row{Producer: FooterLabel, Year: year}}
	for _, r := range reports {
		row := Row{
			Producer:    r.Goal.DisplayName(),
			Year:        r.Goal.Year,
			Monthly:     r.Monthly,
			Total:       r.Simple[core.MonthsInYear-1],
			Accumulated: r.Staircase,
		}
		t.Rows = append(t.Rows, row)

		for i := 0; i < core.MonthsInYear; i++ {
			t.Footer.Monthly[i] += row.Monthly[i]
			t.Footer.Accumulated[i] += row.Accumulated[i]
		}
		t.Footer.Total += row.Total
	}
	return t, nil
}

// Cell returns the value addressed by a column key. Amounts are cents.
func (r Row) Cell(key string) (any, bool) {
	switch key {
	case KeyProducer:
		return r.Producer, true
	case KeyYear:
		return r.Year, true
	case KeyTotal:
		return r.Total, true
	}
	for i, k := range core.MonthKeys {
		if key == k {
			return r.Monthly[i], true
		}
		if key == AccumulatedKey(i) {
			return r.Accumulated[i], true
		}
	}
	return nil, false
}

// Matrix renders header, rows and footer as spreadsheet values. Amounts
// become currency units so that spreadsheet formulas work on them.
func (t Table) Matrix() [][]any {
	out := make([][]any, 0, len(t.Rows)+2)
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Header
	}
	out = append(out, header)
	for _, r := range append(append([]Row(nil), t.Rows...), t.Footer) {
		line := make([]any, len(t.Columns))
		for i, c := range t.Columns {
			v, _ := r.Cell(c.Key)
			if cents, ok := v.(int64); ok {
				v = core.Money{Cents: cents}.Reais()
			}
			line[i] = v
		}
		out = append(out, line)
	}
	return out
}

// SheetName is the worksheet/tab name used for a year's export.
func SheetName(base string, year int) string {
	return fmt.Sprintf("%s %d", base, year)
}

// Filename follows the metas_escadinha_<year>.<ext> convention.
func Filename(year int, format Format) string {
	return fmt.Sprintf("metas_escadinha_%d.%s", year, format)
}

// ParseFormat accepts "xlsx" or "csv"; empty means xlsx.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type of a format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
