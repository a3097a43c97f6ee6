package storage

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func newLayout(t *testing.T) Layout {
	t.Helper()
	layout := NewLayout(filepath.Join(t.TempDir(), "deribit_data"))
	require.NoError(t, layout.Ensure())
	return layout
}

func TestLayoutEnsure(t *testing.T) {
	base := filepath.Join(t.TempDir(), "data")
	layout := NewLayout(base)

	require.NoError(t, layout.Ensure())
	require.NoError(t, layout.Ensure(), "Ensure must be idempotent")

	for _, dir := range []string{"orderbook", "trades", "combined"} {
		info, err := os.Stat(filepath.Join(base, dir))
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
}

func TestLayoutEnsureFailsOnFile(t *testing.T) {
	base := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(base, []byte("x"), 0o644))

	require.Error(t, NewLayout(base).Ensure())
}

func TestTimeLabel(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 3, 999, time.Local)
	require.Equal(t, "20240309_070503", TimeLabel(ts))
}

func TestFileName(t *testing.T) {
	require.Equal(t, "BTC-PERPETUAL_bids_20240309_070503.csv", FileName("BTC-PERPETUAL", "bids", "20240309_070503", "csv"))
	require.Equal(t, "BTC_USDC_summary_x.csv", FileName("BTC/USDC", "summary", "x", "csv"))
}

func TestFormatOptional(t *testing.T) {
	v := 100.25
	require.Equal(t, "", FormatOptional(nil))
	require.Equal(t, "100.25", FormatOptional(&v))
	require.Equal(t, "123456789", FormatFloat(123456789))
}

func TestWriteCSVMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "file.csv")

	err := WriteCSV(path, []string{"a"}, nil)

	var writeErr *WriteError
	require.True(t, errors.As(err, &writeErr))
	require.Equal(t, path, writeErr.Path)
}
