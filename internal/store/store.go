// Package store persists result rows to tabular sinks: CSV, XLSX, and an
// embedded SQLite database. Every sink writes the same column set.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/leadsweep/leadsweep/internal/pipeline"
)

// Format selects the output sink(s).
type Format string

// Supported output formats.
const (
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "sqlite"
	FormatAll    Format = "all"
)

// ParseFormat validates a format string from config or flags.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatXLSX, FormatSQLite, FormatAll:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want csv, xlsx, sqlite, or all)", s)
	}
}

// columns is the fixed column contract shared by every sink.
var columns = []string{
	"Company",
	"URL",
	"Email Found",
	"Status",
	"Message ID",
	"Error",
	"Sender Email",
	"Timestamp",
}

func row(r pipeline.Result) []string {
	return []string{
		r.Company,
		r.URL,
		r.Email,
		string(r.Status),
		r.MessageID,
		r.Error,
		r.SenderEmail,
		r.Timestamp.Format("2006-01-02 15:04:05"),
	}
}

// Config controls output placement and file naming.
type Config struct {
	Dir   string
	RunID string
	// Stamp is baked into file names so consecutive runs never collide.
	Stamp time.Time
}

func (c Config) basename() string {
	return "results_" + c.Stamp.Format("20060102_150405")
}

// Saver fans results out to the writers selected by format.
type Saver struct {
	writers map[Format]pipeline.Writer
	logger  *zap.Logger
}

// NewSaver creates the output directory and the writers for the requested
// format.
func NewSaver(format Format, cfg Config, logger *zap.Logger) (*Saver, error) {
	if cfg.Dir == "" {
		cfg.Dir = "results"
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", cfg.Dir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base := filepath.Join(cfg.Dir, cfg.basename())
	all := map[Format]pipeline.Writer{
		FormatCSV:    &CSVWriter{path: base + ".csv"},
		FormatXLSX:   &ExcelWriter{path: base + ".xlsx"},
		FormatSQLite: &SQLiteWriter{path: base + ".db", runID: cfg.RunID},
	}

	writers := make(map[Format]pipeline.Writer)
	if format == FormatAll {
		writers = all
	} else {
		writers[format] = all[format]
	}
	return &Saver{writers: writers, logger: logger}, nil
}

// Save writes the batch to every selected sink. A sink failure does not
// stop the others; all failures are joined into the returned error.
func (s *Saver) Save(ctx context.Context, results []pipeline.Result) (map[Format]string, error) {
	paths := make(map[Format]string, len(s.writers))
	var errs []error
	for format, writer := range s.writers {
		path, err := writer.Write(ctx, results)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s sink: %w", format, err))
			continue
		}
		paths[format] = path
		s.logger.Info("results saved", zap.String("format", string(format)), zap.String("path", path))
	}
	return paths, errors.Join(errs...)
}
