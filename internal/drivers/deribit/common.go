package deribit

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	methodGetOrderBook = "public/get_order_book"
	methodGetTrades    = "public/get_last_trades_by_instrument_and_time"

	jsonRPCVersion = "2.0"
)

// ErrMissingResult is returned when a response envelope carries neither a result nor an error.
var ErrMissingResult = errors.New("response envelope has no result")

// FetchError wraps every failure of a single exchange call: transport, HTTP status,
// JSON-RPC error object or an unusable result.
type FetchError struct {
	Method string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("deribit %s: %v", e.Method, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// APIError is the JSON-RPC error object Deribit returns in place of a result.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      int64          `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

//	{
//	  "jsonrpc": "2.0",
//	  "id": 7,
//	  "result": {...},
//	  "usIn": 1700000000000000,
//	  "usOut": 1700000000000321
//	}
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Result  json.RawMessage `json:"result"`
	Error   *APIError       `json:"error,omitempty"`
}

func (r *rpcResponse) unwrap() (json.RawMessage, error) {
	if r.Error != nil {
		return nil, r.Error
	}
	if len(r.Result) == 0 || string(r.Result) == "null" {
		return nil, ErrMissingResult
	}
	return r.Result, nil
}

//	{
//	  "trades": [
//	    {"trade_seq": 1, "trade_id": "ETH-1", "timestamp": 1700000000000, "price": 100.5,
//	     "amount": 10, "direction": "buy", "instrument_name": "ETH-PERPETUAL", ...}
//	  ],
//	  "has_more": false
//	}
type tradesResult struct {
	Trades  []json.RawMessage `json:"trades"`
	HasMore bool              `json:"has_more"`
}
