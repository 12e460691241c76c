// Package extract pulls email addresses out of page markup and picks the
// best outreach candidate by local-part priority.
package extract

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/leadsweep/leadsweep/internal/pipeline"
)

// emailPattern matches email-shaped strings in free text. Candidates still
// go through validAddress, which enforces the per-label domain grammar the
// regexp is too coarse for.
var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// DefaultPriorityLocals is the ordered list of local-parts preferred when a
// page exposes several addresses. Earlier entries win regardless of where
// the address appears in the document.
func DefaultPriorityLocals() []string {
	return []string{"contact", "info", "support", "hello", "sales"}
}

// DefaultExcludePatterns filters placeholder and machine addresses that show
// up in page templates and third-party scripts.
func DefaultExcludePatterns() []string {
	return []string{
		"example.com", "test.com", "domain.com", "email.com",
		"yourdomain.com", "yoursite.com", "sentry.io", "wixpress.com",
		"noreply", "no-reply", "donotreply", "mailer-daemon",
	}
}

// Config carries the ordered priority and exclusion tables. Both are passed
// in explicitly so tests and config files can override them.
type Config struct {
	PriorityLocals  []string
	ExcludePatterns []string
}

// Extractor implements pipeline.Extractor over HTML or plain text.
type Extractor struct {
	cfg Config
}

// New builds an Extractor, falling back to the default tables when the
// config leaves them empty.
func New(cfg Config) *Extractor {
	if len(cfg.PriorityLocals) == 0 {
		cfg.PriorityLocals = DefaultPriorityLocals()
	}
	if cfg.ExcludePatterns == nil {
		cfg.ExcludePatterns = DefaultExcludePatterns()
	}
	return &Extractor{cfg: cfg}
}

// Extract returns every distinct valid address on the page in extraction
// order (mailto links and email-bearing attributes first, then visible
// text) and the address selected by the priority rule. Dedup is
// case-sensitive on the exact string; nothing is normalized.
func (e *Extractor) Extract(body []byte) pipeline.Extraction {
	if len(body) == 0 {
		return pipeline.Extraction{}
	}

	var ordered []string
	seen := make(map[string]struct{})
	add := func(raw string) {
		for _, match := range emailPattern.FindAllString(raw, -1) {
			if !validAddress(match) || e.excluded(match) {
				continue
			}
			if _, dup := seen[match]; dup {
				continue
			}
			seen[match] = struct{}{}
			ordered = append(ordered, match)
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		// Not parseable as HTML; fall back to a raw text scan.
		add(string(body))
	} else {
		e.scanDocument(doc, add)
	}

	return pipeline.Extraction{
		Addresses: ordered,
		Selected:  e.selectBest(ordered),
	}
}

func (e *Extractor) scanDocument(doc *goquery.Document, add func(string)) {
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		if strings.HasPrefix(strings.ToLower(href), "mailto:") {
			add(href[len("mailto:"):])
		}
	})

	// Some themes stash the address in data attributes instead of text.
	doc.Find("a, span, div, p").Each(func(_ int, sel *goquery.Selection) {
		for _, attr := range sel.Nodes[0].Attr {
			if !strings.Contains(strings.ToLower(attr.Key), "mail") {
				continue
			}
			if strings.Contains(attr.Val, "@") {
				add(attr.Val)
			}
		}
	})

	add(doc.Text())
}

func (e *Extractor) selectBest(addrs []string) string {
	if len(addrs) == 0 {
		return ""
	}
	for _, local := range e.cfg.PriorityLocals {
		for _, addr := range addrs {
			if localPart(addr) == local {
				return addr
			}
		}
	}
	return addrs[0]
}

func (e *Extractor) excluded(addr string) bool {
	lowered := strings.ToLower(addr)
	for _, pattern := range e.cfg.ExcludePatterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}

func localPart(addr string) string {
	at := strings.IndexByte(addr, '@')
	if at < 0 {
		return addr
	}
	return addr[:at]
}

// validAddress enforces the address grammar: a single @, a non-empty local
// part, and a dot-separated domain whose labels are alphanumeric/hyphen
// with a final label of at least two characters.
func validAddress(addr string) bool {
	if strings.Count(addr, "@") != 1 {
		return false
	}
	local, domain, _ := strings.Cut(addr, "@")
	if local == "" || domain == "" {
		return false
	}
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if !validLabel(label) {
			return false
		}
	}
	return len(labels[len(labels)-1]) >= 2
}

func validLabel(label string) bool {
	if label == "" {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}
