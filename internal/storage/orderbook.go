package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/navid-fn/deribit-collector/internal/models"
)

var (
	sideHeader    = []string{"price", "amount", "timestamp", "instrument"}
	summaryHeader = []string{
		"instrument_name", "timestamp",
		"index_price", "mark_price", "last_price", "open_interest",
		"best_bid_price", "best_ask_price", "bid_ask_spread",
	}
)

// SnapshotResult lists what SnapshotWriter.Write produced.
// BidsPath and AsksPath are empty when the side had no levels.
type SnapshotResult struct {
	JSONPath    string
	BidsPath    string
	AsksPath    string
	SummaryPath string

	Summary   models.SummaryRecord
	Timestamp int64
}

type SnapshotWriter struct {
	dir string
}

func NewSnapshotWriter(layout Layout) *SnapshotWriter {
	return &SnapshotWriter{dir: layout.OrderBookDir}
}

// Write stores the raw snapshot, one CSV per non-empty side and the summary row.
// The files are independent: a failure can leave earlier ones in place.
func (w *SnapshotWriter) Write(snapshot *models.OrderBookSnapshot, label string) (*SnapshotResult, error) {
	instrument := snapshot.InstrumentName
	result := &SnapshotResult{
		Summary:   models.NewSummaryRecord(snapshot),
		Timestamp: snapshot.Timestamp,
	}

	raw := []byte(snapshot.Raw)
	if len(raw) == 0 {
		var err error
		if raw, err = json.Marshal(snapshot); err != nil {
			return nil, fmt.Errorf("marshal snapshot: %w", err)
		}
	}
	result.JSONPath = filepath.Join(w.dir, FileName(instrument, "orderbook", label, "json"))
	if err := writeJSON(result.JSONPath, raw); err != nil {
		return nil, err
	}

	if len(snapshot.Bids) > 0 {
		result.BidsPath = filepath.Join(w.dir, FileName(instrument, "bids", label, "csv"))
		if err := WriteCSV(result.BidsPath, sideHeader, sideRows(snapshot, snapshot.Bids)); err != nil {
			return nil, err
		}
	}
	if len(snapshot.Asks) > 0 {
		result.AsksPath = filepath.Join(w.dir, FileName(instrument, "asks", label, "csv"))
		if err := WriteCSV(result.AsksPath, sideHeader, sideRows(snapshot, snapshot.Asks)); err != nil {
			return nil, err
		}
	}

	result.SummaryPath = filepath.Join(w.dir, FileName(instrument, "summary", label, "csv"))
	if err := WriteCSV(result.SummaryPath, summaryHeader, [][]string{summaryRow(result.Summary)}); err != nil {
		return nil, err
	}

	return result, nil
}

func sideRows(snapshot *models.OrderBookSnapshot, levels []models.PriceLevel) [][]string {
	ts := strconv.FormatInt(snapshot.Timestamp, 10)
	rows := make([][]string, 0, len(levels))
	for _, l := range levels {
		rows = append(rows, []string{FormatFloat(l.Price), FormatFloat(l.Amount), ts, snapshot.InstrumentName})
	}
	return rows
}

func summaryRow(s models.SummaryRecord) []string {
	return []string{
		s.InstrumentName,
		strconv.FormatInt(s.Timestamp, 10),
		FormatOptional(s.IndexPrice),
		FormatOptional(s.MarkPrice),
		FormatOptional(s.LastPrice),
		FormatOptional(s.OpenInterest),
		FormatOptional(s.BestBidPrice),
		FormatOptional(s.BestAskPrice),
		FormatOptional(s.Spread),
	}
}
