// Package pipeline defines the core types and interfaces for the contact
// discovery pipeline, plus the Runner that drives a batch of targets.
package pipeline

import (
	"time"
)

// Status is the per-target outcome tag persisted with each result.
type Status string

// Status values written to the Status column.
const (
	StatusSuccess      Status = "Success"
	StatusFailed       Status = "Failed"
	StatusNoEmail      Status = "NoEmailFound"
	StatusFoundNotSent Status = "EmailFoundNotSent"
)

// Result is the outcome row produced for exactly one input URL.
// Company always holds the input URL verbatim; URL holds the final URL the
// fetcher landed on (after redirects and contact-path probing).
type Result struct {
	Company     string    `json:"company"`
	URL         string    `json:"url"`
	Email       string    `json:"email_found"`
	Status      Status    `json:"status"`
	MessageID   string    `json:"message_id,omitempty"`
	Error       string    `json:"error,omitempty"`
	SenderEmail string    `json:"sender_email,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// FetchRequest captures everything needed to fetch a candidate page.
type FetchRequest struct {
	URL string
	// Render forces a headless browser fetch regardless of the promotion
	// heuristic. Set by the prober when a static fetch already failed.
	Render bool
}

// FetchResponse is returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
	Rendered   bool
}

// Extraction holds the addresses found on a single page, in document order,
// and the one chosen by the priority rule. Selected is empty when the page
// yielded nothing usable.
type Extraction struct {
	Addresses []string
	Selected  string
}

// Discovery is the prober's verdict for one target: the selected address,
// the page it was found on, and the union of addresses seen across all
// probed candidates.
type Discovery struct {
	Address     string
	FinalURL    string
	Addresses   []string
	PagesProbed int
}

// Message is a composed outreach email ready to hand to a Notifier.
type Message struct {
	Subject string
	Body    string
}

// MessageData feeds the subject/body templates for one target.
type MessageData struct {
	Company string
	URL     string
	Email   string
}
