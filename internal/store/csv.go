package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/leadsweep/leadsweep/internal/pipeline"
)

// CSVWriter writes results to a comma-separated file with a header row.
type CSVWriter struct {
	path string
}

// NewCSVWriter returns a writer targeting path.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Write persists the batch. An empty batch still produces a file with the
// header row so downstream tooling sees the schema.
func (w *CSVWriter) Write(ctx context.Context, results []pipeline.Result) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	f, err := os.Create(w.path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", w.path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(columns); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		if err := cw.Write(row(r)); err != nil {
			return "", fmt.Errorf("write row for %s: %w", r.Company, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return w.path, nil
}
