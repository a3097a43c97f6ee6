package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPriceLevelJSON(t *testing.T) {
	data, err := json.Marshal([]PriceLevel{{Price: 100.5, Amount: 2}, {Price: 100, Amount: 5}})
	require.NoError(t, err)
	require.JSONEq(t, `[[100.5,2],[100,5]]`, string(data))

	var levels []PriceLevel
	require.NoError(t, json.Unmarshal(data, &levels))
	require.Equal(t, []PriceLevel{{Price: 100.5, Amount: 2}, {Price: 100, Amount: 5}}, levels)
}

func TestPriceLevelRejectsMalformed(t *testing.T) {
	var level PriceLevel
	require.Error(t, json.Unmarshal([]byte(`[1]`), &level))
	require.Error(t, json.Unmarshal([]byte(`{"price":1}`), &level))
}

func TestSnapshotBestPrices(t *testing.T) {
	s := &OrderBookSnapshot{}
	require.Nil(t, s.BestBid())
	require.Nil(t, s.BestAsk())

	s.Bids = []PriceLevel{{Price: 9, Amount: 1}}
	s.Asks = []PriceLevel{{Price: 11, Amount: 1}}
	require.Equal(t, 9.0, *s.BestBid())
	require.Equal(t, 11.0, *s.BestAsk())
}
