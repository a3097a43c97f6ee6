// Package models defines the domain values shared by the collector components.
package models

import (
	"encoding/json"
	"fmt"
)

// PriceLevel is a single (price, amount) row of one order book side.
// On the wire it is a two element array: [price, amount].
type PriceLevel struct {
	Price  float64
	Amount float64
}

func (p PriceLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Price, p.Amount})
}

func (p *PriceLevel) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("price level: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("price level: expected 2 elements, got %d", len(pair))
	}
	p.Price, p.Amount = pair[0], pair[1]
	return nil
}

// OrderBookSnapshot is a point-in-time capture of one instrument's book.
// Bids are best-first (highest price first), asks best-first (lowest price first).
// Either side may be empty.
type OrderBookSnapshot struct {
	// InstrumentName is the exchange symbol (e.g., "BTC-PERPETUAL").
	InstrumentName string `json:"instrument_name"`

	// Timestamp is the exchange capture time in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`

	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`

	// Optional ticker fields; nil when the exchange omitted them.
	IndexPrice   *float64 `json:"index_price,omitempty"`
	MarkPrice    *float64 `json:"mark_price,omitempty"`
	LastPrice    *float64 `json:"last_price,omitempty"`
	OpenInterest *float64 `json:"open_interest,omitempty"`

	// Raw is the exchange payload exactly as received, kept for the JSON backup.
	Raw json.RawMessage `json:"-"`
}

// BestBid returns the top bid price, or nil for an empty side.
func (s *OrderBookSnapshot) BestBid() *float64 {
	if len(s.Bids) == 0 {
		return nil
	}
	price := s.Bids[0].Price
	return &price
}

// BestAsk returns the top ask price, or nil for an empty side.
func (s *OrderBookSnapshot) BestAsk() *float64 {
	if len(s.Asks) == 0 {
		return nil
	}
	price := s.Asks[0].Price
	return &price
}
