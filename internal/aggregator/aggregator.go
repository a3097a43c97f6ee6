// Package aggregator joins one cycle's order book summary and trade statistics
// into a single combined row.
package aggregator

import (
	"path/filepath"
	"strconv"

	"github.com/navid-fn/deribit-collector/internal/models"
	"github.com/navid-fn/deribit-collector/internal/storage"
)

var combinedHeader = []string{
	"instrument", "timestamp",
	"best_bid", "best_ask", "spread",
	"last_price", "index_price", "mark_price", "open_interest",
	"trade_count", "buy_volume", "sell_volume",
	"avg_trade_price", "min_trade_price", "max_trade_price",
}

// Combine builds the combined record. Both inputs must come from the same cycle.
func Combine(summary models.SummaryRecord, stats models.TradeStats, instrument string, timestamp int64) models.CombinedRecord {
	return models.CombinedRecord{
		Instrument:    instrument,
		Timestamp:     timestamp,
		BestBid:       summary.BestBidPrice,
		BestAsk:       summary.BestAskPrice,
		Spread:        summary.Spread,
		LastPrice:     summary.LastPrice,
		IndexPrice:    summary.IndexPrice,
		MarkPrice:     summary.MarkPrice,
		OpenInterest:  summary.OpenInterest,
		TradeCount:    stats.Count,
		BuyVolume:     stats.BuyVolume,
		SellVolume:    stats.SellVolume,
		AvgTradePrice: stats.AvgPrice,
		MinTradePrice: stats.MinPrice,
		MaxTradePrice: stats.MaxPrice,
	}
}

type Aggregator struct {
	dir string
}

func New(layout storage.Layout) *Aggregator {
	return &Aggregator{dir: layout.CombinedDir}
}

// Write stores rec as a single-row CSV and returns its path.
func (a *Aggregator) Write(rec models.CombinedRecord, label string) (string, error) {
	path := filepath.Join(a.dir, storage.FileName(rec.Instrument, "combined", label, "csv"))
	if err := storage.WriteCSV(path, combinedHeader, [][]string{row(rec)}); err != nil {
		return "", err
	}
	return path, nil
}

func row(rec models.CombinedRecord) []string {
	return []string{
		rec.Instrument,
		strconv.FormatInt(rec.Timestamp, 10),
		storage.FormatOptional(rec.BestBid),
		storage.FormatOptional(rec.BestAsk),
		storage.FormatOptional(rec.Spread),
		storage.FormatOptional(rec.LastPrice),
		storage.FormatOptional(rec.IndexPrice),
		storage.FormatOptional(rec.MarkPrice),
		storage.FormatOptional(rec.OpenInterest),
		strconv.Itoa(rec.TradeCount),
		storage.FormatFloat(rec.BuyVolume),
		storage.FormatFloat(rec.SellVolume),
		storage.FormatFloat(rec.AvgTradePrice),
		storage.FormatFloat(rec.MinTradePrice),
		storage.FormatFloat(rec.MaxTradePrice),
	}
}
