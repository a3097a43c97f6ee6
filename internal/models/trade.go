package models

import "encoding/json"

const (
	DirectionBuy  = "buy"
	DirectionSell = "sell"
)

// Trade is a single print returned by the trades-by-time endpoint.
type Trade struct {
	TradeID        string  `json:"trade_id"`
	TradeSeq       int64   `json:"trade_seq"`
	InstrumentName string  `json:"instrument_name"`
	Timestamp      int64   `json:"timestamp"`
	Price          float64 `json:"price"`
	Amount         float64 `json:"amount"`

	// Direction is the taker side: "buy" or "sell".
	Direction     string  `json:"direction"`
	IndexPrice    float64 `json:"index_price"`
	MarkPrice     float64 `json:"mark_price"`
	TickDirection int     `json:"tick_direction"`

	// Raw is the exchange object exactly as received.
	Raw json.RawMessage `json:"-"`
}
