package pipeline

import (
	"context"
	"time"
)

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Prober walks a target's candidate contact pages until one yields an
// address or the candidate list is exhausted.
type Prober interface {
	Discover(ctx context.Context, target string) (Discovery, error)
}

// Extractor pulls email addresses out of page markup and applies the
// priority rule.
type Extractor interface {
	Extract(body []byte) Extraction
}

// RenderDetector decides whether a statically fetched page warrants a
// headless re-fetch to capture script-injected content.
type RenderDetector interface {
	ShouldRender(resp FetchResponse) bool
}

// Notifier sends a composed message and returns the provider's message ID.
type Notifier interface {
	Send(ctx context.Context, to string, msg Message) (string, error)
	Sender() string
}

// Composer renders the subject/body templates for one target.
type Composer interface {
	Compose(data MessageData) (Message, error)
}

// Writer persists a batch of results to one sink and returns the path (or
// DSN) it wrote to.
type Writer interface {
	Write(ctx context.Context, results []Result) (string, error)
}

// Pacer bounds the request rate between consecutive targets. A
// *rate.Limiter satisfies this; tests substitute a no-op.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
