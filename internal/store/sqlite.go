package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/leadsweep/leadsweep/internal/pipeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS outreach_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT,
	company TEXT,
	url TEXT,
	email_found TEXT,
	status TEXT,
	message_id TEXT,
	error TEXT,
	sender_email TEXT,
	timestamp TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

const insertResult = `
INSERT INTO outreach_results
	(run_id, company, url, email_found, status, message_id, error, sender_email, timestamp)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// SQLiteWriter appends results to an embedded SQLite database, stamping
// each row with the batch run ID.
type SQLiteWriter struct {
	path  string
	runID string
}

// NewSQLiteWriter returns a writer targeting the database at path.
func NewSQLiteWriter(path, runID string) *SQLiteWriter {
	return &SQLiteWriter{path: path, runID: runID}
}

// Write opens the database, ensures the schema, and inserts the batch in a
// single transaction.
func (w *SQLiteWriter) Write(ctx context.Context, results []pipeline.Result) (string, error) {
	db, err := sql.Open("sqlite", w.path)
	if err != nil {
		return "", fmt.Errorf("open sqlite %s: %w", w.path, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return "", fmt.Errorf("init schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	for _, r := range results {
		if _, err := tx.ExecContext(ctx, insertResult,
			w.runID,
			r.Company,
			r.URL,
			r.Email,
			string(r.Status),
			r.MessageID,
			r.Error,
			r.SenderEmail,
			r.Timestamp.Format("2006-01-02 15:04:05"),
		); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return "", fmt.Errorf("insert row for %s: %w (rollback: %v)", r.Company, err, rbErr)
			}
			return "", fmt.Errorf("insert row for %s: %w", r.Company, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return w.path, nil
}
