package api

import (
	"context"
	"fmt"

	"github.com/fundview/marketsync/internal/model"
)

// GetGlobalMarkets fetches the bucketed global market snapshot.
func (c *Client) GetGlobalMarkets(ctx context.Context) (*GlobalMarketsResponse, error) {
	var resp GlobalMarketsResponse
	if err := c.get(ctx, "/api/market/global", nil, &resp); err != nil {
		return nil, fmt.Errorf("get global markets: %w", err)
	}
	return &resp, nil
}

// GetMarketIndices fetches the core index list.
func (c *Client) GetMarketIndices(ctx context.Context) (*IndicesResponse, error) {
	var resp IndicesResponse
	if err := c.get(ctx, "/api/market/indices", nil, &resp); err != nil {
		return nil, fmt.Errorf("get market indices: %w", err)
	}
	return &resp, nil
}

// FetchQuotes fetches the global snapshot and flattens it to normalized
// quotes. This is the poller's fetch function.
func (c *Client) FetchQuotes(ctx context.Context) ([]model.Quote, error) {
	resp, err := c.GetGlobalMarkets(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Flatten(), nil
}
