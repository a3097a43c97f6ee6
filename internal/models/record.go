package models

import "github.com/shopspring/decimal"

// SummaryRecord is derived 1:1 from an OrderBookSnapshot.
// Best prices and spread are nil when the matching side is empty.
// Crossed books are not corrected, so Spread may be negative.
type SummaryRecord struct {
	InstrumentName string
	Timestamp      int64

	IndexPrice   *float64
	MarkPrice    *float64
	LastPrice    *float64
	OpenInterest *float64

	BestBidPrice *float64
	BestAskPrice *float64
	Spread       *float64
}

// NewSummaryRecord derives the summary row of a snapshot.
func NewSummaryRecord(s *OrderBookSnapshot) SummaryRecord {
	rec := SummaryRecord{
		InstrumentName: s.InstrumentName,
		Timestamp:      s.Timestamp,
		IndexPrice:     s.IndexPrice,
		MarkPrice:      s.MarkPrice,
		LastPrice:      s.LastPrice,
		OpenInterest:   s.OpenInterest,
		BestBidPrice:   s.BestBid(),
		BestAskPrice:   s.BestAsk(),
	}
	if rec.BestBidPrice != nil && rec.BestAskPrice != nil {
		spread := *rec.BestAskPrice - *rec.BestBidPrice
		rec.Spread = &spread
	}
	return rec
}

// TradeStats aggregates one trade batch. Every field is zero for an empty batch.
type TradeStats struct {
	Count      int
	BuyVolume  float64
	SellVolume float64
	AvgPrice   float64
	MinPrice   float64
	MaxPrice   float64
}

// NewTradeStats aggregates trades. Directions other than buy/sell count
// towards Count and the price fields only. Sums are accumulated as decimals
// so volumes like 0.1+0.2 come out exact.
func NewTradeStats(trades []Trade) TradeStats {
	stats := TradeStats{Count: len(trades)}
	if len(trades) == 0 {
		return stats
	}

	buy, sell, sum := decimal.Zero, decimal.Zero, decimal.Zero
	stats.MinPrice = trades[0].Price
	stats.MaxPrice = trades[0].Price
	for _, t := range trades {
		switch t.Direction {
		case DirectionBuy:
			buy = buy.Add(decimal.NewFromFloat(t.Amount))
		case DirectionSell:
			sell = sell.Add(decimal.NewFromFloat(t.Amount))
		}
		sum = sum.Add(decimal.NewFromFloat(t.Price))
		stats.MinPrice = min(stats.MinPrice, t.Price)
		stats.MaxPrice = max(stats.MaxPrice, t.Price)
	}
	stats.BuyVolume = buy.InexactFloat64()
	stats.SellVolume = sell.InexactFloat64()
	stats.AvgPrice = sum.Div(decimal.NewFromInt(int64(len(trades)))).InexactFloat64()
	return stats
}

// CombinedRecord joins one cycle's order book summary and trade statistics.
type CombinedRecord struct {
	Instrument string   `json:"instrument"`
	Timestamp  int64    `json:"timestamp"`
	BestBid    *float64 `json:"best_bid"`
	BestAsk    *float64 `json:"best_ask"`
	Spread     *float64 `json:"spread"`

	LastPrice    *float64 `json:"last_price"`
	IndexPrice   *float64 `json:"index_price"`
	MarkPrice    *float64 `json:"mark_price"`
	OpenInterest *float64 `json:"open_interest"`

	TradeCount    int     `json:"trade_count"`
	BuyVolume     float64 `json:"buy_volume"`
	SellVolume    float64 `json:"sell_volume"`
	AvgTradePrice float64 `json:"avg_trade_price"`
	MinTradePrice float64 `json:"min_trade_price"`
	MaxTradePrice float64 `json:"max_trade_price"`
}
