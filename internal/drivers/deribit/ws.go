package deribit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/navid-fn/deribit-collector/internal/crawler"
)

// wsTransport sends the same public calls as JSON-RPC messages over one websocket.
// The connection is dialed lazily and dropped on any I/O error; the next call redials.
type wsTransport struct {
	url            string
	requestTimeout time.Duration
	dialer         *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	nextID int64
}

func newWSTransport(wsURL string, requestTimeout time.Duration) *wsTransport {
	return &wsTransport{
		url:            wsURL,
		requestTimeout: requestTimeout,
		dialer: &websocket.Dialer{
			HandshakeTimeout: crawler.HandshakeTimeout,
		},
	}
}

func (t *wsTransport) call(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		conn, _, err := t.dialer.DialContext(ctx, t.url, nil)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", t.url, err)
		}
		t.conn = conn
	}

	t.nextID++
	id := t.nextID

	deadline := t.deadline(ctx)
	_ = t.conn.SetWriteDeadline(deadline)
	if err := t.conn.WriteJSON(rpcRequest{JSONRPC: jsonRPCVersion, ID: id, Method: method, Params: params}); err != nil {
		t.dropLocked()
		return nil, fmt.Errorf("write request: %w", err)
	}

	_ = t.conn.SetReadDeadline(deadline)
	for {
		var resp rpcResponse
		if err := t.conn.ReadJSON(&resp); err != nil {
			t.dropLocked()
			return nil, fmt.Errorf("read response: %w", err)
		}
		// Notifications and late replies to abandoned calls carry other ids.
		if resp.ID == nil || *resp.ID != id {
			continue
		}
		return resp.unwrap()
	}
}

func (t *wsTransport) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(t.requestTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		return d
	}
	return deadline
}

func (t *wsTransport) dropLocked() {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}

func (t *wsTransport) close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}
	_ = t.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(crawler.WriteTimeout),
	)
	err := t.conn.Close()
	t.conn = nil
	return err
}
