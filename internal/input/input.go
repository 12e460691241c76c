// Package input loads the target URL list from CLI literals or files.
package input

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load combines literal URLs with the contents of an optional file and
// dedupes the result while preserving order. Dedup here is a convenience
// for the CLI surface; the pipeline itself does not enforce it.
func Load(literals []string, file string) ([]string, error) {
	urls := append([]string(nil), literals...)
	if file != "" {
		fromFile, err := FromFile(file)
		if err != nil {
			return nil, err
		}
		urls = append(urls, fromFile...)
	}
	return Dedupe(urls), nil
}

// FromFile reads URLs from a file: CSV first column (header skipped) for
// .csv files, otherwise one URL per line with # comments ignored.
func FromFile(path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return fromCSV(path)
	}
	return fromLines(path)
}

func fromCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}

	var urls []string
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		value := strings.TrimSpace(row[0])
		if value == "" {
			continue
		}
		// First row may be a header; skip it when it doesn't look like a URL.
		if i == 0 && !strings.Contains(value, ".") {
			continue
		}
		urls = append(urls, value)
	}
	return urls, nil
}

func fromLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, nil
}

// Dedupe removes duplicate URLs, keeping the first occurrence.
func Dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
