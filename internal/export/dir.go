package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirExporter writes each exported year as a workbook inside Dir.
type DirExporter struct {
	Dir    string
	Format Format
}

// ExportEscadinha writes the table to Dir and returns the file path. The
// file is renamed into place so readers never see a partial workbook.
func (d DirExporter) ExportEscadinha(ctx context.Context, t Table) (string, error) {
	if len(t.Rows) == 0 {
		return "", ErrNoData
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	format := d.Format
	if format == "" {
		format = FormatXLSX
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(d.Dir, ".escadinha-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteTo(tmp, t, format); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	path := filepath.Join(d.Dir, Filename(t.Year, format))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("move export into place: %w", err)
	}
	return path, nil
}
