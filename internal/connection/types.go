package connection

import (
	"errors"
	"time"

	"github.com/fundview/marketsync/internal/model"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// PushUpdate is a parsed batch of quotes from one push frame.
type PushUpdate struct {
	Quotes     []model.Quote
	UpdateTime string    // Server-reported update time, verbatim
	ReceivedAt time.Time // Local receive timestamp
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL              string        // Push channel URL (e.g., ws://host/ws/market)
	HandshakeTimeout time.Duration // Dial handshake deadline
	PingTimeout      time.Duration // Max time without ping before considering connection stale
	WriteTimeout     time.Duration // Write deadline for sends
	BufferSize       int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		PingTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		BufferSize:       256,
	}
}

// ManagerConfig configures the connection manager.
type ManagerConfig struct {
	URL              string        // Push channel URL
	ReconnectDelay   time.Duration // Fixed wait between reconnect attempts
	HandshakeTimeout time.Duration
	PingTimeout      time.Duration
	WriteTimeout     time.Duration
	BufferSize       int // Buffer size for the updates channel
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		ReconnectDelay:   5 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		PingTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		BufferSize:       256,
	}
}
