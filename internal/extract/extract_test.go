package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractPriorityBeatsDocumentOrder(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	body := []byte(`<html><body>
		<p>Reach our team at sales@acme.io or hello@acme.io.</p>
		<p>General questions: contact@acme.io</p>
	</body></html>`)

	got := e.Extract(body)
	require.Equal(t, "contact@acme.io", got.Selected)
	require.Equal(t, []string{"sales@acme.io", "hello@acme.io", "contact@acme.io"}, got.Addresses)
}

func TestExtractFallsBackToFirstAddress(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	got := e.Extract([]byte(`<p>ceo@acme.io and press@acme.io</p>`))
	require.Equal(t, "ceo@acme.io", got.Selected)
}

func TestExtractMailtoLinksComeFirst(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	body := []byte(`<html><body>
		<p>Write to visible@acme.io.</p>
		<a href="mailto:hidden@acme.io?subject=Hi">Email us</a>
	</body></html>`)

	got := e.Extract(body)
	require.Equal(t, []string{"hidden@acme.io", "visible@acme.io"}, got.Addresses)
}

func TestExtractDataAttributeAddresses(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	body := []byte(`<div data-mail="ops@acme.io">Contact</div>`)

	got := e.Extract(body)
	require.Equal(t, []string{"ops@acme.io"}, got.Addresses)
}

func TestExtractCaseSensitiveDedupe(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	body := []byte(`<p>Info@acme.io info@acme.io Info@acme.io</p>`)

	got := e.Extract(body)
	require.Equal(t, []string{"Info@acme.io", "info@acme.io"}, got.Addresses)
	// Priority match is exact on the local part, so the lowercase one wins.
	require.Equal(t, "info@acme.io", got.Selected)
}

func TestExtractIdempotent(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	body := []byte(`<p>contact@acme.io and sales@acme.io</p>`)

	first := e.Extract(body)
	second := e.Extract(body)
	require.Equal(t, first, second)
}

func TestExtractEmptyBody(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	got := e.Extract(nil)
	require.Empty(t, got.Addresses)
	require.Empty(t, got.Selected)
}

func TestExtractExcludesPlaceholders(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	body := []byte(`<p>
		user@example.com noreply@acme.io errors@sentry.io real@acme.io
	</p>`)

	got := e.Extract(body)
	require.Equal(t, []string{"real@acme.io"}, got.Addresses)
}

func TestExtractCustomTables(t *testing.T) {
	t.Parallel()

	e := New(Config{
		PriorityLocals:  []string{"press"},
		ExcludePatterns: []string{"acme.io"},
	})
	body := []byte(`<p>press@other.dev contact@acme.io</p>`)

	got := e.Extract(body)
	require.Equal(t, []string{"press@other.dev"}, got.Addresses)
	require.Equal(t, "press@other.dev", got.Selected)
}

func TestValidAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want bool
	}{
		{"contact@acme.io", true},
		{"first.last+tag@sub.acme.co.uk", true},
		{"foo@bar", false},
		{"foo@bar.x", false},
		{"@acme.io", false},
		{"foo@@acme.io", false},
		{"foo@-.io", true}, // hyphen-only labels pass the per-label grammar
		{"foo@acme..io", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := validAddress(tt.addr); got != tt.want {
				t.Fatalf("validAddress(%q) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}
}
