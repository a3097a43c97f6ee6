package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/navid-fn/deribit-collector/internal/models"
)

var tradeHeader = []string{
	"trade_id", "trade_seq", "timestamp", "instrument_name", "direction",
	"price", "amount", "index_price", "mark_price", "tick_direction",
}

// TradeResult lists what TradeWriter.Write produced.
type TradeResult struct {
	CSVPath  string
	JSONPath string
	Stats    models.TradeStats
}

type TradeWriter struct {
	dir string
}

func NewTradeWriter(layout Layout) *TradeWriter {
	return &TradeWriter{dir: layout.TradesDir}
}

// Write stores a trade batch as CSV and raw JSON, labelled with the window start
// in local time. An empty batch writes nothing and returns a nil result.
func (w *TradeWriter) Write(trades []models.Trade, windowStartMs int64, instrument string) (*TradeResult, error) {
	if len(trades) == 0 {
		return nil, nil
	}

	label := TimeLabel(time.UnixMilli(windowStartMs))
	result := &TradeResult{
		CSVPath:  filepath.Join(w.dir, FileName(instrument, "trades", label, "csv")),
		JSONPath: filepath.Join(w.dir, FileName(instrument, "trades", label, "json")),
		Stats:    models.NewTradeStats(trades),
	}

	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, []string{
			t.TradeID,
			strconv.FormatInt(t.TradeSeq, 10),
			strconv.FormatInt(t.Timestamp, 10),
			t.InstrumentName,
			t.Direction,
			FormatFloat(t.Price),
			FormatFloat(t.Amount),
			FormatFloat(t.IndexPrice),
			FormatFloat(t.MarkPrice),
			strconv.Itoa(t.TickDirection),
		})
	}
	if err := WriteCSV(result.CSVPath, tradeHeader, rows); err != nil {
		return nil, err
	}

	raw, err := rawTrades(trades)
	if err != nil {
		return nil, err
	}
	if err := writeJSON(result.JSONPath, raw); err != nil {
		return nil, err
	}

	return result, nil
}

// rawTrades rebuilds the exchange array from the kept payloads,
// marshalling trades that arrived without one.
func rawTrades(trades []models.Trade) ([]byte, error) {
	items := make([]json.RawMessage, 0, len(trades))
	for _, t := range trades {
		if len(t.Raw) > 0 {
			items = append(items, t.Raw)
			continue
		}
		data, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("marshal trade %s: %w", t.TradeID, err)
		}
		items = append(items, data)
	}
	return json.Marshal(items)
}
