// Package probe walks a site's likely contact pages and stops at the first
// one that yields a usable email address.
package probe

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/leadsweep/leadsweep/internal/pipeline"
)

// DefaultContactPaths is the ordered suffix table probed after the homepage.
// Order defines precedence: the first page that yields an address wins.
func DefaultContactPaths() []string {
	return []string{
		"/contact",
		"/contact-us",
		"/contactus",
		"/about",
		"/about-us",
		"/aboutus",
		"/support",
		"/get-in-touch",
		"/reach-us",
		"/connect",
	}
}

// Config controls candidate generation.
type Config struct {
	ContactPaths []string
}

// Prober implements pipeline.Prober. The primary fetcher handles every
// candidate; when a renderer and detector are present, pages that look
// script-generated are re-fetched with a headless browser before
// extraction.
type Prober struct {
	cfg       Config
	fetcher   pipeline.Fetcher
	renderer  pipeline.Fetcher
	detector  pipeline.RenderDetector
	extractor pipeline.Extractor
	logger    *zap.Logger
}

// New constructs a Prober. renderer and detector are optional.
func New(
	cfg Config,
	fetcher pipeline.Fetcher,
	renderer pipeline.Fetcher,
	detector pipeline.RenderDetector,
	extractor pipeline.Extractor,
	logger *zap.Logger,
) *Prober {
	if len(cfg.ContactPaths) == 0 {
		cfg.ContactPaths = DefaultContactPaths()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{
		cfg:       cfg,
		fetcher:   fetcher,
		renderer:  renderer,
		detector:  detector,
		extractor: extractor,
		logger:    logger,
	}
}

// Discover probes the target's candidate pages in order and returns as soon
// as one yields a selected address. A candidate whose fetch fails is
// skipped; only context cancellation aborts the walk early.
func (p *Prober) Discover(ctx context.Context, target string) (pipeline.Discovery, error) {
	origin, err := NormalizeOrigin(target)
	if err != nil {
		return pipeline.Discovery{}, fmt.Errorf("normalize target: %w", err)
	}

	disc := pipeline.Discovery{}
	seen := make(map[string]struct{})
	var lastErr error

	for _, candidate := range Candidates(origin, p.cfg.ContactPaths) {
		if ctx.Err() != nil {
			return pipeline.Discovery{}, fmt.Errorf("probe canceled: %w", ctx.Err())
		}

		resp, err := p.fetchCandidate(ctx, candidate)
		disc.PagesProbed++
		if err != nil {
			lastErr = err
			p.logger.Debug("candidate fetch failed", zap.String("url", candidate), zap.Error(err))
			continue
		}

		ex := p.extractor.Extract(resp.Body)
		for _, addr := range ex.Addresses {
			if _, dup := seen[addr]; dup {
				continue
			}
			seen[addr] = struct{}{}
			disc.Addresses = append(disc.Addresses, addr)
		}
		if ex.Selected != "" {
			disc.Address = ex.Selected
			disc.FinalURL = resp.URL
			return disc, nil
		}
	}

	if lastErr != nil {
		return disc, fmt.Errorf("%w (last fetch error: %v)", pipeline.ErrNoAddress, lastErr)
	}
	return disc, pipeline.ErrNoAddress
}

func (p *Prober) fetchCandidate(ctx context.Context, candidate string) (pipeline.FetchResponse, error) {
	resp, err := p.fetcher.Fetch(ctx, pipeline.FetchRequest{URL: candidate})
	if err != nil {
		if p.renderer == nil {
			return pipeline.FetchResponse{}, err
		}
		// A rendered fetch sometimes gets past what a plain GET cannot.
		return p.renderer.Fetch(ctx, pipeline.FetchRequest{URL: candidate, Render: true})
	}
	if p.renderer == nil || p.detector == nil || !p.detector.ShouldRender(resp) {
		return resp, nil
	}
	rendered, rerr := p.renderer.Fetch(ctx, pipeline.FetchRequest{URL: candidate, Render: true})
	if rerr != nil {
		p.logger.Warn("render promotion failed", zap.String("url", candidate), zap.Error(rerr))
		return resp, nil
	}
	return rendered, nil
}

// NormalizeOrigin defaults the scheme to https and strips the query,
// fragment, and trailing slash so candidate suffixes append cleanly.
func NormalizeOrigin(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("empty target URL")
	}
	lowered := strings.ToLower(trimmed)
	if !strings.HasPrefix(lowered, "http://") && !strings.HasPrefix(lowered, "https://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// Candidates returns the ordered probe list for an origin: the homepage
// first (an address there costs nothing extra), then each contact-path
// suffix. Duplicates are dropped while preserving order.
func Candidates(origin string, paths []string) []string {
	out := make([]string, 0, len(paths)+1)
	seen := make(map[string]struct{}, len(paths)+1)
	push := func(u string) {
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	push(origin)
	for _, p := range paths {
		if p == "" || p == "/" {
			push(origin)
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		push(origin + p)
	}
	return out
}
