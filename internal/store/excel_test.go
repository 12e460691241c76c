package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExcelWriterRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.xlsx")
	w := NewExcelWriter(path)

	got, err := w.Write(context.Background(), sampleResults())
	require.NoError(t, err)
	require.Equal(t, path, got)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, columns, rows[0])
	require.Equal(t, "contact@acme.io", rows[1][2])
	require.Equal(t, "NoEmailFound", rows[2][3])
}
