// Package storage persists collected data as files under a fixed directory layout:
//
//	<base>/orderbook   raw snapshot JSON, per-side CSV, summary CSV
//	<base>/trades      trade batch CSV and raw JSON
//	<base>/combined    one joined row per cycle
//
// File names embed the instrument and a YYYYMMDD_HHMMSS label, so two writes
// for the same instrument within one second target the same path.
package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const labelLayout = "20060102_150405"

// WriteError reports a failed artifact write.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Layout names the artifact directories.
type Layout struct {
	BaseDir      string
	OrderBookDir string
	TradesDir    string
	CombinedDir  string
}

func NewLayout(baseDir string) Layout {
	return Layout{
		BaseDir:      baseDir,
		OrderBookDir: filepath.Join(baseDir, "orderbook"),
		TradesDir:    filepath.Join(baseDir, "trades"),
		CombinedDir:  filepath.Join(baseDir, "combined"),
	}
}

// Ensure creates every directory of the layout that does not exist yet.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.OrderBookDir, l.TradesDir, l.CombinedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}
	return nil
}

// TimeLabel formats t as YYYYMMDD_HHMMSS in t's location.
func TimeLabel(t time.Time) string {
	return t.Format(labelLayout)
}

// FileName builds "<instrument>_<kind>_<label>.<ext>".
func FileName(instrument, kind, label, ext string) string {
	safe := strings.NewReplacer("/", "_", string(os.PathSeparator), "_").Replace(instrument)
	return fmt.Sprintf("%s_%s_%s.%s", safe, kind, label, ext)
}

// WriteCSV writes header and rows to path, replacing any existing file.
func WriteCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return &WriteError{Path: path, Err: err}
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return &WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// writeJSON stores raw JSON indented with two spaces.
func writeJSON(path string, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return &WriteError{Path: path, Err: fmt.Errorf("indent json: %w", err)}
	}
	buf.WriteByte('\n')

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// FormatFloat renders v without exponent or trailing zeros.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatOptional renders nil as an empty cell.
func FormatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return FormatFloat(*v)
}
