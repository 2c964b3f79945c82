package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fundview/marketsync/internal/model"
)

// FetchFunc fetches the current quote snapshot.
type FetchFunc func(ctx context.Context) ([]model.Quote, error)

// IntervalResolver returns the poll interval to use for the next wait.
// A zero or negative interval stops the poller until the next Start.
type IntervalResolver func() time.Duration

// Handler receives fetched quote batches.
type Handler interface {
	HandleQuotes(quotes []model.Quote)
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func([]model.Quote)

func (f HandlerFunc) HandleQuotes(quotes []model.Quote) {
	f(quotes)
}

// Config holds poller configuration.
type Config struct {
	Timeout time.Duration // Per-fetch timeout (default: 8s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout: 8 * time.Second,
	}
}

// Stats provides poller counters.
type Stats struct {
	Running bool
	Polls   uint64
	Errors  uint64
}

// Poller periodically fetches quote snapshots via the REST API. The
// interval is re-resolved on every iteration, so the cadence follows
// the trading session without restarting the poller.
type Poller struct {
	cfg     Config
	fetch   FetchFunc
	resolve IntervalResolver
	handler Handler
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	polls  atomic.Uint64
	errors atomic.Uint64
}

// New creates a new Poller.
func New(cfg Config, fetch FetchFunc, resolve IntervalResolver, handler Handler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:     cfg,
		fetch:   fetch,
		resolve: resolve,
		handler: handler,
		logger:  logger,
	}
}

// Start begins the polling loop. The first fetch runs synchronously
// before Start returns, so callers have a fresh snapshot immediately.
// Starting a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.mu.Unlock()

	p.poll()

	p.wg.Add(1)
	go p.run()

	p.logger.Info("poller started", "timeout", p.cfg.Timeout)
	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether the polling loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Stats returns current counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Running: p.Running(),
		Polls:   p.polls.Load(),
		Errors:  p.errors.Load(),
	}
}

// run is the main polling loop. Each iteration re-derives the interval;
// the poller idles itself when the resolver reports no polling is
// needed, and a later Start revives it.
func (p *Poller) run() {
	defer p.wg.Done()
	defer p.setStopped()

	for {
		interval := p.resolve()
		if interval <= 0 {
			p.logger.Info("poll interval zero, going idle")
			return
		}

		t := time.NewTimer(interval)
		select {
		case <-p.ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}

		p.poll()
	}
}

// poll runs a single fetch with the configured timeout. Errors are
// logged; the snapshot from the previous poll stays in effect.
func (p *Poller) poll() {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	quotes, err := p.fetch(ctx)
	if err != nil {
		p.errors.Add(1)
		p.logger.Warn("fetch failed", "error", err, "duration", time.Since(start))
		return
	}

	p.polls.Add(1)
	p.logger.Debug("poll complete", "quotes", len(quotes), "duration", time.Since(start))

	if p.handler != nil {
		p.handler.HandleQuotes(quotes)
	}
}

func (p *Poller) setStopped() {
	p.mu.Lock()
	p.running = false
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()
}
