package model

import (
	"encoding/json"
	"time"
)

// -----------------------------------------------------------------------------
// Quote Types
// -----------------------------------------------------------------------------

// Quote is a normalized market index quote.
type Quote struct {
	Code          string  `json:"code"`           // Primary key (e.g., "sh000001")
	Name          string  `json:"name"`           // Display name
	Value         float64 `json:"value"`          // Current index value
	ChangePercent float64 `json:"change_percent"` // Daily change, percent
}

// RawIndex is the wire form of an index quote. Upstream sources disagree
// on field names (code vs symbol, value vs price, change_percent vs
// change), so every variant is decoded and Normalize picks the populated
// one.
type RawIndex struct {
	Code          string   `json:"code"`
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	Value         *float64 `json:"value"`
	Price         *float64 `json:"price"`
	ChangePercent *float64 `json:"change_percent"`
	Change        *float64 `json:"change"`
}

// Normalize converts a RawIndex to a Quote. Returns false when the entry
// carries no usable instrument code.
func (r RawIndex) Normalize() (Quote, bool) {
	code := r.Code
	if code == "" {
		code = r.Symbol
	}
	if code == "" {
		return Quote{}, false
	}

	q := Quote{
		Code: code,
		Name: r.Name,
	}

	switch {
	case r.Value != nil:
		q.Value = *r.Value
	case r.Price != nil:
		q.Value = *r.Price
	}

	switch {
	case r.ChangePercent != nil:
		q.ChangePercent = *r.ChangePercent
	case r.Change != nil:
		q.ChangePercent = *r.Change
	}

	return q, true
}

// NormalizeBatch converts a batch of raw indices, dropping entries that
// lack a code.
func NormalizeBatch(raw []RawIndex) []Quote {
	quotes := make([]Quote, 0, len(raw))
	for _, r := range raw {
		if q, ok := r.Normalize(); ok {
			quotes = append(quotes, q)
		}
	}
	return quotes
}

// -----------------------------------------------------------------------------
// Push Channel Types
// -----------------------------------------------------------------------------

// PushMessageType is the only frame type that carries quote data. Frames
// with any other type are counted and ignored.
const PushMessageType = "market_update"

// PushMessage is a frame received on the push channel.
type PushMessage struct {
	Type       string          `json:"type"`
	Indices    []RawIndex      `json:"indices"`
	UpdateTime string          `json:"update_time"`
	Message    json.RawMessage `json:"message,omitempty"`
}

// -----------------------------------------------------------------------------
// Trading Session Types
// -----------------------------------------------------------------------------

// Session classifies an instant of the exchange day. Sessions partition
// the day: exactly one is active at any instant.
type Session string

const (
	SessionPreMarket  Session = "pre_market"
	SessionTrading    Session = "trading"
	SessionNoonBreak  Session = "noon_break"
	SessionAfterHours Session = "after_hours"
	SessionClosed     Session = "closed"
	SessionWeekend    Session = "weekend"
)

// MarketStatus describes the trading session at a given instant.
type MarketStatus struct {
	Session  Session   // Active session
	IsOpen   bool      // true only for trading and pre_market
	NextOpen time.Time // Next session-open instant; zero while open
	Message  string    // Human-readable description
}

// -----------------------------------------------------------------------------
// Connection Types
// -----------------------------------------------------------------------------

// ConnectionState is the push-channel connection lifecycle state.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

// String returns the lowercase state name.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}
