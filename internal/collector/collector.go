// Package collector runs collection cycles for one instrument: fetch the order book
// and recent trades, write them under the storage layout and join both into a
// combined row.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/navid-fn/deribit-collector/configs"
	"github.com/navid-fn/deribit-collector/internal/aggregator"
	"github.com/navid-fn/deribit-collector/internal/models"
	"github.com/navid-fn/deribit-collector/internal/sender"
	"github.com/navid-fn/deribit-collector/internal/storage"
	"github.com/sirupsen/logrus"
)

// Exchange is the market data source of a cycle.
// FetchTrades never fails; an unavailable window is an empty batch.
type Exchange interface {
	FetchOrderBook(ctx context.Context, instrument string, depth int) (*models.OrderBookSnapshot, error)
	FetchTrades(ctx context.Context, instrument string, startMs, endMs int64, count int) []models.Trade
}

// CycleResult describes what one cycle wrote. Snapshot is nil when the order
// book could not be fetched; Trades is nil when the window was empty or trades
// are disabled; Combined is set only when both are present.
type CycleResult struct {
	CycleID string
	Label   string

	Snapshot     *storage.SnapshotResult
	Trades       *storage.TradeResult
	Combined     *models.CombinedRecord
	CombinedPath string
}

type Collector struct {
	cfg        configs.CollectorConfig
	exchange   Exchange
	snapshots  *storage.SnapshotWriter
	trades     *storage.TradeWriter
	aggregator *aggregator.Aggregator
	sender     sender.Sender
	logger     *logrus.Logger

	now func() time.Time
}

func New(cfg configs.CollectorConfig, exchange Exchange, layout storage.Layout, snd sender.Sender, logger *logrus.Logger) *Collector {
	if snd == nil {
		snd = sender.NopSender{}
	}
	return &Collector{
		cfg:        cfg,
		exchange:   exchange,
		snapshots:  storage.NewSnapshotWriter(layout),
		trades:     storage.NewTradeWriter(layout),
		aggregator: aggregator.New(layout),
		sender:     snd,
		logger:     logger,
		now:        time.Now,
	}
}

// RunCycle performs one collection cycle. A failed order book fetch is logged
// and ends the cycle with a nil error; write failures are returned.
func (c *Collector) RunCycle(ctx context.Context) (*CycleResult, error) {
	now := c.now()
	result := &CycleResult{
		CycleID: uuid.NewString(),
		Label:   storage.TimeLabel(now),
	}
	log := c.logger.WithFields(logrus.Fields{
		"instrument": c.cfg.Instrument,
		"cycle_id":   result.CycleID,
	})
	log.Info("Starting data collection")

	snapshot, err := c.exchange.FetchOrderBook(ctx, c.cfg.Instrument, c.cfg.Depth)
	if err != nil {
		log.WithError(err).Error("Failed to obtain order book data, cycle aborted")
		return result, nil
	}

	snapRes, err := c.snapshots.Write(snapshot, result.Label)
	if err != nil {
		return result, fmt.Errorf("write order book: %w", err)
	}
	result.Snapshot = snapRes
	log.WithFields(logrus.Fields{
		"depth":   c.cfg.Depth,
		"summary": snapRes.SummaryPath,
	}).Info("Order book data saved")

	if !c.cfg.IncludeTrades {
		return result, nil
	}

	endMs := now.UnixMilli()
	startMs := now.Add(-c.cfg.TradeLookback).UnixMilli()
	trades := c.exchange.FetchTrades(ctx, c.cfg.Instrument, startMs, endMs, c.cfg.TradeCount)
	if len(trades) == 0 {
		log.Info("No trade data found")
		return result, nil
	}

	tradeRes, err := c.trades.Write(trades, startMs, c.cfg.Instrument)
	if err != nil {
		return result, fmt.Errorf("write trades: %w", err)
	}
	result.Trades = tradeRes
	log.WithField("count", len(trades)).Info("Trade data saved")

	rec := aggregator.Combine(snapRes.Summary, tradeRes.Stats, c.cfg.Instrument, snapRes.Timestamp)
	path, err := c.aggregator.Write(rec, result.Label)
	if err != nil {
		return result, fmt.Errorf("write combined record: %w", err)
	}
	result.Combined = &rec
	result.CombinedPath = path
	log.WithField("path", path).Info("Combined data saved")

	if err := c.sender.SendCombined(ctx, rec); err != nil {
		log.WithError(err).Warn("Failed to publish combined record")
	}
	return result, nil
}
