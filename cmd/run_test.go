package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leadsweep/leadsweep/internal/config"
)

func TestRunCommandNoSendEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>Say hi: contact@acme.io</p></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	outDir := filepath.Join(dir, "results")
	cfgPath := filepath.Join(dir, "leadsweep.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
crawler:
  delay_seconds: 0
  render_enabled: false
output:
  format: csv
`), 0o600))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{
		"run",
		"--config", cfgPath,
		"--no-send",
		"--url", srv.URL,
		"--out-dir", outDir,
	})

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "Processed 1 companies")
	require.Contains(t, out.String(), "EmailFoundNotSent")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	f, err := os.Open(filepath.Join(outDir, entries[0].Name()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, srv.URL, rows[1][0])
	require.Equal(t, "contact@acme.io", rows[1][2])
	require.Equal(t, "EmailFoundNotSent", rows[1][3])
}

func TestBuildRunnerReturnsRendererCleanup(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "leadsweep.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
mail:
  enabled: false
`), 0o600))
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	require.True(t, cfg.Crawler.RenderEnabled)

	runner, cleanup, err := buildRunner(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, runner)
	require.NotNil(t, cleanup)
	cleanup() // tears down the browser allocator; must not panic
}

func TestRunCommandRejectsEmptyTargetList(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "leadsweep.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{}\n"), 0o600))

	root := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"run", "--config", cfgPath, "--no-send"})

	require.Error(t, root.Execute())
}

func TestRunCommandRejectsUnknownFormat(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "leadsweep.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{}\n"), 0o600))

	root := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{
		"run", "--config", cfgPath, "--no-send",
		"--url", "acme.io", "--format", "parquet",
	})

	require.Error(t, root.Execute())
}
