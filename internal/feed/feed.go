package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fundview/marketsync/internal/calendar"
	"github.com/fundview/marketsync/internal/connection"
	"github.com/fundview/marketsync/internal/model"
	"github.com/fundview/marketsync/internal/poller"
	"github.com/fundview/marketsync/internal/store"
)

// ensureInterval is the cadence of the calendar re-check that revives
// an idled poller when a session opens.
const ensureInterval = 30 * time.Second

// SessionSource classifies instants against the trading calendar.
// *calendar.Calendar satisfies it.
type SessionSource interface {
	Classify(now time.Time) model.MarketStatus
}

// Feed coordinates the push channel, the REST poller and the store.
// The poller runs only while the push channel is down; push and poll
// results funnel into the same store merge path, so a stale in-flight
// poll landing after a push is resolved by last write wins per code.
type Feed struct {
	sessions SessionSource
	manager  connection.Manager
	poller   *poller.Poller
	store    *store.Store
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wires the components. The poller's handler must already feed the
// same store (store.ApplyPoll).
func New(sessions SessionSource, manager connection.Manager, p *poller.Poller, st *store.Store, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		sessions: sessions,
		manager:  manager,
		poller:   p,
		store:    st,
		logger:   logger,
	}
}

// Start brings up the push channel and, since it starts disconnected,
// the poller alongside it.
func (f *Feed) Start(ctx context.Context) error {
	f.ctx, f.cancel = context.WithCancel(ctx)

	if err := f.manager.Start(f.ctx); err != nil {
		return err
	}

	// The push channel is not up yet; poll until it is.
	if err := f.poller.Start(f.ctx); err != nil {
		return err
	}

	f.wg.Add(1)
	go f.run()

	f.logger.Info("feed started")
	return nil
}

// Stop tears down in order: push channel first (cancels any pending
// reconnect), then the poller, then the run loop, then the store's
// subscribers. No callback fires after Stop returns.
func (f *Feed) Stop(ctx context.Context) error {
	f.logger.Info("stopping feed")

	managerErr := f.manager.Stop(ctx)
	pollerErr := f.poller.Stop(ctx)

	if f.cancel != nil {
		f.cancel()
	}

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	var waitErr error
	select {
	case <-done:
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	f.store.Close()

	f.logger.Info("feed stopped")
	return errors.Join(managerErr, pollerErr, waitErr)
}

// Subscribe registers a consumer callback on the store.
func (f *Feed) Subscribe(fn store.Subscriber) (unsubscribe func()) {
	return f.store.Subscribe(fn)
}

// Snapshot returns the current quote view.
func (f *Feed) Snapshot() []model.Quote {
	return f.store.Snapshot()
}

// run is the event loop: push batches into the store, state
// transitions into poller gating, and a slow tick that re-checks the
// calendar.
func (f *Feed) run() {
	defer f.wg.Done()

	ticker := time.NewTicker(ensureInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.ctx.Done():
			return

		case update, ok := <-f.manager.Updates():
			if !ok {
				return
			}
			f.store.ApplyPush(update.Quotes)

		case state, ok := <-f.manager.States():
			if !ok {
				return
			}
			f.handleState(state)

		case <-ticker.C:
			f.ensurePolling()
		}
	}
}

// handleState gates the poller on the push-channel state.
func (f *Feed) handleState(state model.ConnectionState) {
	switch state {
	case model.StateConnected:
		f.logger.Info("push channel up, pausing poller")
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := f.poller.Stop(stopCtx); err != nil {
			f.logger.Warn("poller stop failed", "error", err)
		}

	default:
		f.logger.Info("push channel down, resuming poller", "state", state)
		if err := f.poller.Start(f.ctx); err != nil {
			f.logger.Warn("poller start failed", "error", err)
		}
	}
}

// ensurePolling revives a poller that idled itself over a closed
// session once the calendar says polling is worthwhile again.
func (f *Feed) ensurePolling() {
	if f.manager.State() == model.StateConnected {
		return
	}
	if f.poller.Running() {
		return
	}

	status := f.sessions.Classify(time.Now())
	if calendar.RecommendedPollInterval(status) <= 0 {
		return
	}

	f.logger.Info("session open and push channel down, reviving poller",
		"session", status.Session,
	)
	if err := f.poller.Start(f.ctx); err != nil {
		f.logger.Warn("poller start failed", "error", err)
	}
}
