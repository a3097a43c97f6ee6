package collector

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/navid-fn/deribit-collector/configs"
	"github.com/navid-fn/deribit-collector/internal/models"
	"github.com/navid-fn/deribit-collector/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type tradeQuery struct {
	instrument     string
	startMs, endMs int64
	count          int
}

type fakeExchange struct {
	book    *models.OrderBookSnapshot
	bookErr error
	trades  []models.Trade

	bookCalls  int
	tradeCalls []tradeQuery
	lastDepth  int
}

func (f *fakeExchange) FetchOrderBook(_ context.Context, instrument string, depth int) (*models.OrderBookSnapshot, error) {
	f.bookCalls++
	f.lastDepth = depth
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	return f.book, nil
}

func (f *fakeExchange) FetchTrades(_ context.Context, instrument string, startMs, endMs int64, count int) []models.Trade {
	f.tradeCalls = append(f.tradeCalls, tradeQuery{instrument, startMs, endMs, count})
	return f.trades
}

type recordingSender struct {
	records []models.CombinedRecord
	err     error
}

func (s *recordingSender) SendCombined(_ context.Context, rec models.CombinedRecord) error {
	s.records = append(s.records, rec)
	return s.err
}

func (s *recordingSender) Close() {}

func ptr(v float64) *float64 { return &v }

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig() configs.CollectorConfig {
	return configs.CollectorConfig{
		Instrument:    "BTC-PERPETUAL",
		Depth:         15,
		Interval:      5 * time.Minute,
		Duration:      time.Hour,
		TradeLookback: 5 * time.Minute,
		TradeCount:    configs.MaxTradeCount,
		IncludeTrades: true,
		RecoveryDelay: 30 * time.Second,
	}
}

func testBook() *models.OrderBookSnapshot {
	return &models.OrderBookSnapshot{
		InstrumentName: "BTC-PERPETUAL",
		Timestamp:      1700000000000,
		Bids:           []models.PriceLevel{{Price: 100, Amount: 5}, {Price: 99, Amount: 3}},
		Asks:           []models.PriceLevel{{Price: 101, Amount: 2}},
		MarkPrice:      ptr(100.5),
	}
}

func testTrades() []models.Trade {
	return []models.Trade{
		{TradeID: "1", InstrumentName: "BTC-PERPETUAL", Timestamp: 1699999990000, Price: 100, Amount: 2, Direction: models.DirectionBuy},
		{TradeID: "2", InstrumentName: "BTC-PERPETUAL", Timestamp: 1699999995000, Price: 102, Amount: 1, Direction: models.DirectionSell},
	}
}

var cycleTime = time.Date(2024, 3, 1, 12, 30, 0, 0, time.Local)

func newTestCollector(t *testing.T, cfg configs.CollectorConfig, ex Exchange, snd *recordingSender) (*Collector, storage.Layout) {
	t.Helper()
	layout := storage.NewLayout(filepath.Join(t.TempDir(), "deribit_data"))
	require.NoError(t, layout.Ensure())

	c := New(cfg, ex, layout, snd, testLogger())
	c.now = func() time.Time { return cycleTime }
	return c, layout
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRunCycleFull(t *testing.T) {
	ex := &fakeExchange{book: testBook(), trades: testTrades()}
	snd := &recordingSender{}
	c, layout := newTestCollector(t, testConfig(), ex, snd)

	result, err := c.RunCycle(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, result.CycleID)
	require.Equal(t, "20240301_123000", result.Label)
	require.Equal(t, 15, ex.lastDepth)

	require.Len(t, ex.tradeCalls, 1)
	q := ex.tradeCalls[0]
	require.Equal(t, "BTC-PERPETUAL", q.instrument)
	require.Equal(t, cycleTime.UnixMilli(), q.endMs)
	require.Equal(t, cycleTime.Add(-5*time.Minute).UnixMilli(), q.startMs)
	require.Equal(t, configs.MaxTradeCount, q.count)

	require.NotNil(t, result.Snapshot)
	require.FileExists(t, result.Snapshot.SummaryPath)
	require.NotNil(t, result.Trades)
	require.Equal(t, filepath.Join(layout.TradesDir, "BTC-PERPETUAL_trades_20240301_122500.csv"), result.Trades.CSVPath)

	require.NotNil(t, result.Combined)
	require.Equal(t, filepath.Join(layout.CombinedDir, "BTC-PERPETUAL_combined_20240301_123000.csv"), result.CombinedPath)
	require.FileExists(t, result.CombinedPath)

	rec := *result.Combined
	require.Equal(t, int64(1700000000000), rec.Timestamp)
	require.Equal(t, 2, rec.TradeCount)
	require.Equal(t, 2.0, rec.BuyVolume)
	require.Equal(t, 1.0, rec.SellVolume)
	require.InDelta(t, 1.0, *rec.Spread, 1e-9)

	require.Len(t, snd.records, 1)
	require.Equal(t, rec, snd.records[0])
}

func TestRunCycleOrderBookFailure(t *testing.T) {
	ex := &fakeExchange{bookErr: errors.New("connection refused"), trades: testTrades()}
	snd := &recordingSender{}
	c, layout := newTestCollector(t, testConfig(), ex, snd)

	result, err := c.RunCycle(context.Background())
	require.NoError(t, err)
	require.Nil(t, result.Snapshot)
	require.Nil(t, result.Combined)

	require.Empty(t, ex.tradeCalls)
	require.Empty(t, snd.records)
	require.Empty(t, listDir(t, layout.OrderBookDir))
	require.Empty(t, listDir(t, layout.TradesDir))
	require.Empty(t, listDir(t, layout.CombinedDir))
}

func TestRunCycleNoTrades(t *testing.T) {
	ex := &fakeExchange{book: testBook()}
	snd := &recordingSender{}
	c, layout := newTestCollector(t, testConfig(), ex, snd)

	result, err := c.RunCycle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.Snapshot)
	require.Nil(t, result.Trades)
	require.Nil(t, result.Combined)

	require.Len(t, ex.tradeCalls, 1)
	require.Empty(t, listDir(t, layout.TradesDir))
	require.Empty(t, listDir(t, layout.CombinedDir))
	require.Empty(t, snd.records)
}

func TestRunCycleTradesDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.IncludeTrades = false
	ex := &fakeExchange{book: testBook(), trades: testTrades()}
	c, layout := newTestCollector(t, cfg, ex, &recordingSender{})

	result, err := c.RunCycle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.Snapshot)
	require.Nil(t, result.Combined)
	require.Empty(t, ex.tradeCalls)
	require.Empty(t, listDir(t, layout.CombinedDir))
}

func TestRunCycleSendFailureIsNotFatal(t *testing.T) {
	ex := &fakeExchange{book: testBook(), trades: testTrades()}
	snd := &recordingSender{err: errors.New("queue full")}
	c, _ := newTestCollector(t, testConfig(), ex, snd)

	result, err := c.RunCycle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.Combined)
	require.Len(t, snd.records, 1)
}

func TestRunCycleWriteError(t *testing.T) {
	ex := &fakeExchange{book: testBook(), trades: testTrades()}
	layout := storage.NewLayout(filepath.Join(t.TempDir(), "missing"))

	c := New(testConfig(), ex, layout, nil, testLogger())
	c.now = func() time.Time { return cycleTime }

	_, err := c.RunCycle(context.Background())
	require.Error(t, err)

	var writeErr *storage.WriteError
	require.ErrorAs(t, err, &writeErr)
	require.Empty(t, ex.tradeCalls)
}
