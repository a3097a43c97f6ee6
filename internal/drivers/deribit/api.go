package deribit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/navid-fn/deribit-collector/internal/crawler"
)

const maxErrorBody = 512

// httpTransport issues public calls as plain GET requests: <base>/<method>?<params>.
type httpTransport struct {
	baseURL string
	client  *http.Client
}

func newHTTPTransport(config *crawler.HTTPConfig) *httpTransport {
	return &httpTransport{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		client:  config.Client(),
	}
}

func (t *httpTransport) call(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	query := url.Values{}
	for key, value := range params {
		query.Set(key, fmt.Sprint(value))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/"+method+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return data.unwrap()
}

func (t *httpTransport) close() error {
	t.client.CloseIdleConnections()
	return nil
}
