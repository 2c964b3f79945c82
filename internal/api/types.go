package api

import (
	"sort"

	"github.com/fundview/marketsync/internal/model"
)

// Bucket keys returned by GET /api/market/global, in display order.
var bucketOrder = []string{"cn", "us", "commodity", "crypto", "fx"}

// GlobalMarketsResponse from GET /api/market/global
type GlobalMarketsResponse struct {
	UpdateTime string                  `json:"update_time"`
	Markets    map[string]MarketBucket `json:"markets"`
}

// MarketBucket groups indices for one market region or asset class.
type MarketBucket struct {
	Name    string           `json:"name"`
	Indices []model.RawIndex `json:"indices"`
}

// IndicesResponse from GET /api/market/indices
type IndicesResponse struct {
	UpdateTime string           `json:"update_time"`
	Indices    []model.RawIndex `json:"indices"`
}

// Flatten concatenates present buckets in canonical order (cn, us,
// commodity, crypto, fx, then any unknown keys sorted) and normalizes
// entries to quotes.
func (r *GlobalMarketsResponse) Flatten() []model.Quote {
	known := make(map[string]bool, len(bucketOrder))
	var raw []model.RawIndex

	for _, key := range bucketOrder {
		known[key] = true
		if bucket, ok := r.Markets[key]; ok {
			raw = append(raw, bucket.Indices...)
		}
	}

	var extra []string
	for key := range r.Markets {
		if !known[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		raw = append(raw, r.Markets[key].Indices...)
	}

	return model.NormalizeBatch(raw)
}
