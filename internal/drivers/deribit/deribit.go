// Package deribit is a read-only client for the Deribit v2 public API.
// Only the order book and trades-by-time endpoints are used; no request is authenticated.
package deribit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/navid-fn/deribit-collector/configs"
	"github.com/navid-fn/deribit-collector/internal/crawler"
	"github.com/navid-fn/deribit-collector/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type transport interface {
	call(ctx context.Context, method string, params map[string]any) (json.RawMessage, error)
	close() error
}

type Client struct {
	transport transport
	limiter   *rate.Limiter
	logger    *logrus.Entry
}

// NewClient builds a client over the transport selected in cfg.
func NewClient(cfg configs.DeribitConfig, logger *logrus.Logger) (*Client, error) {
	httpConfig := crawler.DefaultHTTPConfig(cfg.BaseURL, cfg.RequestsPerSecond)
	if cfg.RequestTimeout > 0 {
		httpConfig.RequestTimeout = cfg.RequestTimeout
	}

	var t transport
	switch cfg.Transport {
	case configs.TransportHTTP, "":
		t = newHTTPTransport(httpConfig)
	case configs.TransportWS:
		t = newWSTransport(cfg.WSURL, httpConfig.RequestTimeout)
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}

	return &Client{
		transport: t,
		limiter:   httpConfig.RateLimiter,
		logger:    logger.WithField("exchange", "deribit"),
	}, nil
}

func (c *Client) call(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Method: method, Err: err}
	}

	result, err := c.transport.call(ctx, method, params)
	if err != nil {
		return nil, &FetchError{Method: method, Err: err}
	}
	return result, nil
}

// FetchOrderBook returns the current book of instrument, depth levels per side.
// Any failure is a *FetchError and no snapshot is returned.
func (c *Client) FetchOrderBook(ctx context.Context, instrument string, depth int) (*models.OrderBookSnapshot, error) {
	result, err := c.call(ctx, methodGetOrderBook, map[string]any{
		"instrument_name": instrument,
		"depth":           depth,
	})
	if err != nil {
		return nil, err
	}

	var snapshot models.OrderBookSnapshot
	if err := json.Unmarshal(result, &snapshot); err != nil {
		return nil, &FetchError{Method: methodGetOrderBook, Err: fmt.Errorf("decode order book: %w", err)}
	}
	// A result object without timestamp or instrument carries no book.
	if snapshot.Timestamp == 0 && snapshot.InstrumentName == "" {
		return nil, &FetchError{Method: methodGetOrderBook, Err: ErrMissingResult}
	}
	if snapshot.InstrumentName == "" {
		snapshot.InstrumentName = instrument
	}
	snapshot.Raw = result

	c.logger.WithFields(logrus.Fields{
		"instrument": snapshot.InstrumentName,
		"bids":       len(snapshot.Bids),
		"asks":       len(snapshot.Asks),
	}).Debug("Fetched order book")
	return &snapshot, nil
}

// FetchTrades returns the trades of instrument within [startMs, endMs], at most count.
// Errors are logged and degrade to an empty batch.
func (c *Client) FetchTrades(ctx context.Context, instrument string, startMs, endMs int64, count int) []models.Trade {
	trades, err := c.TradesInWindow(ctx, instrument, startMs, endMs, count)
	if err != nil {
		c.logger.WithError(err).WithField("instrument", instrument).Warn("Failed to obtain trade data")
		return []models.Trade{}
	}
	return trades
}

// TradesInWindow is FetchTrades without the degrade-to-empty policy.
func (c *Client) TradesInWindow(ctx context.Context, instrument string, startMs, endMs int64, count int) ([]models.Trade, error) {
	result, err := c.call(ctx, methodGetTrades, map[string]any{
		"instrument_name": instrument,
		"start_timestamp": startMs,
		"end_timestamp":   endMs,
		"include_old":     true,
		"count":           count,
	})
	if err != nil {
		return nil, err
	}

	var data tradesResult
	if err := json.Unmarshal(result, &data); err != nil {
		return nil, &FetchError{Method: methodGetTrades, Err: fmt.Errorf("decode trades: %w", err)}
	}

	trades := make([]models.Trade, 0, len(data.Trades))
	for _, raw := range data.Trades {
		var t models.Trade
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, &FetchError{Method: methodGetTrades, Err: fmt.Errorf("decode trade: %w", err)}
		}
		t.Raw = raw
		trades = append(trades, t)
	}

	if data.HasMore {
		c.logger.WithFields(logrus.Fields{
			"instrument": instrument,
			"count":      count,
		}).Warn("Trade window truncated, exchange reports more trades")
	}
	return trades, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.transport.close()
}
