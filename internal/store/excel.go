package store

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/leadsweep/leadsweep/internal/pipeline"
)

const sheetName = "Results"

// ExcelWriter writes results to an XLSX workbook with a single sheet.
type ExcelWriter struct {
	path string
}

// NewExcelWriter returns a writer targeting path.
func NewExcelWriter(path string) *ExcelWriter {
	return &ExcelWriter{path: path}
}

// Write persists the batch to a fresh workbook.
func (w *ExcelWriter) Write(ctx context.Context, results []pipeline.Result) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return "", fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, 1, columns); err != nil {
		return "", err
	}
	for i, r := range results {
		if err := writeRow(f, i+2, row(r)); err != nil {
			return "", err
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return "", fmt.Errorf("save workbook %s: %w", w.path, err)
	}
	return w.path, nil
}

func writeRow(f *excelize.File, rowNum int, values []string) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return fmt.Errorf("cell name (%d,%d): %w", col+1, rowNum, err)
		}
		if err := f.SetCellValue(sheetName, cell, value); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}
