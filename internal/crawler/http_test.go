package crawler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultHTTPConfig(t *testing.T) {
	baseURL := "https://www.deribit.com/api/v2"

	config := DefaultHTTPConfig(baseURL, 5)

	require.Equal(t, baseURL, config.BaseURL)
	require.NotNil(t, config.RateLimiter)
	require.Equal(t, DefaultBurstSize, config.RateLimiter.Burst())
	require.Equal(t, 5.0, float64(config.RateLimiter.Limit()))
	require.Equal(t, DefaultRequestTimeout, config.RequestTimeout)
}

func TestHTTPConfigClient(t *testing.T) {
	config := DefaultHTTPConfig("http://localhost", 1)
	config.RequestTimeout = 3 * time.Second

	require.Equal(t, 3*time.Second, config.Client().Timeout)
}
