// Package api provides the REST client for the market data backend,
// used as the fallback fetch path when the push channel is down.
//
// Endpoints:
//   - GET /api/market/global  - bucketed snapshot of all tracked markets
//   - GET /api/market/indices - core index list
//
// Requests retry on 5xx and 429 with jittered exponential backoff.
package api
