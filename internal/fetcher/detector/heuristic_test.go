package detector

import (
	"strings"
	"testing"

	"github.com/leadsweep/leadsweep/internal/pipeline"
)

func TestHeuristicShouldRender(t *testing.T) {
	d := NewHeuristic(0)
	filler := strings.Repeat("plain text content ", 200)

	tests := []struct {
		name string
		resp pipeline.FetchResponse
		want bool
	}{
		{
			name: "empty body triggers",
			resp: pipeline.FetchResponse{Body: nil},
			want: true,
		},
		{
			name: "already rendered never triggers",
			resp: pipeline.FetchResponse{Rendered: true},
			want: false,
		},
		{
			name: "small script-heavy shell triggers",
			resp: pipeline.FetchResponse{Body: []byte(`<html><head><script src="/bundle.js"></script><script>window.boot()</script></head><body></body></html>`)},
			want: true,
		},
		{
			name: "react root marker triggers",
			resp: pipeline.FetchResponse{Body: []byte(`<html><body><div id="root"></div>` + filler + `</body></html>`)},
			want: true,
		},
		{
			name: "next marker triggers",
			resp: pipeline.FetchResponse{Body: []byte(`<div id="__next"></div>` + filler)},
			want: true,
		},
		{
			name: "large static page passes",
			resp: pipeline.FetchResponse{Body: []byte("<html><body>" + filler + "</body></html>")},
			want: false,
		},
		{
			name: "small but script-free page passes",
			resp: pipeline.FetchResponse{Body: []byte(`<html><body><p>contact@acme.io</p></body></html>`)},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.ShouldRender(tt.resp); got != tt.want {
				t.Fatalf("ShouldRender() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScriptDensity(t *testing.T) {
	heavy := `<script>a</script><script>b</script>ok`
	if !scriptDensityHigh([]byte(heavy)) {
		t.Fatalf("expected script-dominated body to be flagged")
	}
	light := `<script>a</script>` + strings.Repeat("text ", 100)
	if scriptDensityHigh([]byte(light)) {
		t.Fatalf("did not expect mostly-text body to be flagged")
	}
	if scriptDensityHigh([]byte("no scripts at all")) {
		t.Fatalf("script-free body must never be flagged")
	}
}

func TestHeuristicDefaultThreshold(t *testing.T) {
	if got := NewHeuristic(0).BodyLengthThreshold; got != 2048 {
		t.Fatalf("default threshold = %d, want 2048", got)
	}
	if got := NewHeuristic(512).BodyLengthThreshold; got != 512 {
		t.Fatalf("threshold = %d, want 512", got)
	}
}
