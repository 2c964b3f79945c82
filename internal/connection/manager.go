package connection

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fundview/marketsync/internal/model"
)

// Manager owns the logical push-channel connection. It dials, consumes
// frames, and redials after any close or error with a fixed delay until
// stopped.
type Manager interface {
	// Start begins the connect/consume/reconnect loop.
	Start(ctx context.Context) error

	// Stop cancels any pending reconnect wait, closes the socket, waits
	// for the run goroutine, then closes the output channels. No events
	// are delivered after Stop returns.
	Stop(ctx context.Context) error

	// Updates returns parsed push batches.
	Updates() <-chan PushUpdate

	// States returns connection state transitions.
	States() <-chan model.ConnectionState

	// State returns the current connection state.
	State() model.ConnectionState

	// Stats returns frame and reconnect counters.
	Stats() ManagerStats
}

// ManagerStats provides counters for the push channel.
type ManagerStats struct {
	State       model.ConnectionState
	Frames      uint64 // Frames received
	ParseErrors uint64 // Malformed frames dropped
	Ignored     uint64 // Frames with an unknown type
	Reconnects  uint64 // Reconnect waits entered
}

// manager implements the Manager interface.
type manager struct {
	cfg    ManagerConfig
	logger *slog.Logger

	updates chan PushUpdate
	states  chan model.ConnectionState

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	state   model.ConnectionState
	started bool

	frames      atomic.Uint64
	parseErrors atomic.Uint64
	ignored     atomic.Uint64
	reconnects  atomic.Uint64
}

// NewManager creates a new connection manager.
func NewManager(cfg ManagerConfig, logger *slog.Logger) Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &manager{
		cfg:     cfg,
		logger:  logger,
		updates: make(chan PushUpdate, cfg.BufferSize),
		states:  make(chan model.ConnectionState, 16),
		state:   model.StateDisconnected,
	}
}

// Start begins the connection loop.
func (m *manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyClosed
	}
	m.started = true
	m.mu.Unlock()

	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go m.run()

	m.logger.Info("connection manager started", "url", m.cfg.URL)
	return nil
}

// Stop gracefully shuts down.
func (m *manager) Stop(ctx context.Context) error {
	m.logger.Info("stopping connection manager")

	if m.cancel != nil {
		m.cancel()
	}

	// Wait for the run goroutine with timeout
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("shutdown timeout, abandoning run loop")
		return ctx.Err()
	}

	close(m.updates)
	close(m.states)

	m.logger.Info("connection manager stopped")
	return nil
}

// Updates returns the parsed batch channel.
func (m *manager) Updates() <-chan PushUpdate {
	return m.updates
}

// States returns the state transition channel.
func (m *manager) States() <-chan model.ConnectionState {
	return m.states
}

// State returns the current connection state.
func (m *manager) State() model.ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Stats returns current counters.
func (m *manager) Stats() ManagerStats {
	return ManagerStats{
		State:       m.State(),
		Frames:      m.frames.Load(),
		ParseErrors: m.parseErrors.Load(),
		Ignored:     m.ignored.Load(),
		Reconnects:  m.reconnects.Load(),
	}
}

// run is the connect/consume/reconnect loop. One iteration per
// connection lifetime; every close or error path funnels into the same
// fixed-delay wait.
func (m *manager) run() {
	defer m.wg.Done()
	defer m.setState(model.StateDisconnected)

	for {
		if m.ctx.Err() != nil {
			return
		}

		m.setState(model.StateConnecting)

		client := NewClient(ClientConfig{
			URL:              m.cfg.URL,
			HandshakeTimeout: m.cfg.HandshakeTimeout,
			PingTimeout:      m.cfg.PingTimeout,
			WriteTimeout:     m.cfg.WriteTimeout,
			BufferSize:       m.cfg.BufferSize,
		}, m.logger)

		if err := client.Connect(m.ctx); err != nil {
			m.logger.Warn("connect failed", "url", m.cfg.URL, "error", err)
			m.setState(model.StateDisconnected)
			if !m.waitReconnect() {
				return
			}
			continue
		}

		m.setState(model.StateConnected)
		m.consume(client)
		client.Close()
		m.setState(model.StateDisconnected)

		if !m.waitReconnect() {
			return
		}
	}
}

// consume reads frames from one connection until it drops or the
// manager is stopped.
func (m *manager) consume(client Client) {
	for {
		select {
		case <-m.ctx.Done():
			return

		case err := <-client.Errors():
			m.logger.Warn("connection error", "error", err)
			return

		case msg, ok := <-client.Messages():
			if !ok {
				return
			}
			m.handleFrame(msg)
		}
	}
}

// handleFrame parses one push frame. Malformed frames are dropped
// without tearing down the connection.
func (m *manager) handleFrame(msg TimestampedMessage) {
	m.frames.Add(1)

	var frame model.PushMessage
	if err := json.Unmarshal(msg.Data, &frame); err != nil {
		m.parseErrors.Add(1)
		m.logger.Warn("malformed push frame, dropping",
			"error", err,
			"bytes", len(msg.Data),
		)
		return
	}

	if frame.Type != model.PushMessageType {
		m.ignored.Add(1)
		m.logger.Debug("ignoring frame", "type", frame.Type)
		return
	}

	update := PushUpdate{
		Quotes:     model.NormalizeBatch(frame.Indices),
		UpdateTime: frame.UpdateTime,
		ReceivedAt: msg.ReceivedAt,
	}

	select {
	case m.updates <- update:
	case <-m.ctx.Done():
	}
}

// waitReconnect sleeps the fixed reconnect delay. Returns false when
// the manager was stopped during the wait.
func (m *manager) waitReconnect() bool {
	m.reconnects.Add(1)
	m.logger.Info("reconnecting", "delay", m.cfg.ReconnectDelay)

	t := time.NewTimer(m.cfg.ReconnectDelay)
	defer t.Stop()

	select {
	case <-m.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// setState records a state transition and emits it. Transitions are
// dropped, not blocked on, when the consumer lags.
func (m *manager) setState(s model.ConnectionState) {
	m.mu.Lock()
	if m.state == s {
		m.mu.Unlock()
		return
	}
	old := m.state
	m.state = s
	m.mu.Unlock()

	m.logger.Debug("connection state", "from", old, "to", s)

	select {
	case m.states <- s:
	default:
		m.logger.Debug("state channel full, dropping transition", "state", s)
	}
}
