package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// storageKey is the single KV key holding the encoded code list.
const storageKey = "watchlist"

// Watchlist is an ordered set of instrument codes. The full list is
// loaded once at construction and rewritten on every mutation.
type Watchlist struct {
	kv     KV
	logger *slog.Logger

	mu    sync.RWMutex
	codes []string
	index map[string]struct{}
}

// New loads the persisted watchlist through kv.
func New(ctx context.Context, kv KV, logger *slog.Logger) (*Watchlist, error) {
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watchlist{
		kv:     kv,
		logger: logger,
		index:  make(map[string]struct{}),
	}

	value, found, err := kv.Get(ctx, storageKey)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	if found {
		var codes []string
		if err := json.Unmarshal(value, &codes); err != nil {
			return nil, fmt.Errorf("decode watchlist: %w", err)
		}
		for _, code := range codes {
			if _, dup := w.index[code]; dup || code == "" {
				continue
			}
			w.codes = append(w.codes, code)
			w.index[code] = struct{}{}
		}
	}

	logger.Info("watchlist loaded", "codes", len(w.codes))
	return w, nil
}

// Add appends a code. Adding a present code is a no-op.
func (w *Watchlist) Add(ctx context.Context, code string) error {
	if code == "" {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.index[code]; ok {
		return nil
	}

	w.codes = append(w.codes, code)
	w.index[code] = struct{}{}

	if err := w.persistLocked(ctx); err != nil {
		// Roll back so memory matches storage
		w.codes = w.codes[:len(w.codes)-1]
		delete(w.index, code)
		return err
	}

	w.logger.Debug("watchlist add", "code", code, "size", len(w.codes))
	return nil
}

// Remove deletes a code. Removing an absent code is a no-op.
func (w *Watchlist) Remove(ctx context.Context, code string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.index[code]; !ok {
		return nil
	}

	old := w.codes
	w.codes = make([]string, 0, len(old)-1)
	for _, c := range old {
		if c != code {
			w.codes = append(w.codes, c)
		}
	}
	delete(w.index, code)

	if err := w.persistLocked(ctx); err != nil {
		w.codes = old
		w.index[code] = struct{}{}
		return err
	}

	w.logger.Debug("watchlist remove", "code", code, "size", len(w.codes))
	return nil
}

// Codes returns a copy of the list in insertion order.
func (w *Watchlist) Codes() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.codes...)
}

// Contains reports whether code is on the list.
func (w *Watchlist) Contains(code string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.index[code]
	return ok
}

// Len returns the number of codes.
func (w *Watchlist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.codes)
}

// Close releases the backing store.
func (w *Watchlist) Close() error {
	return w.kv.Close()
}

func (w *Watchlist) persistLocked(ctx context.Context) error {
	value, err := json.Marshal(w.codes)
	if err != nil {
		return fmt.Errorf("encode watchlist: %w", err)
	}
	if err := w.kv.Put(ctx, storageKey, value); err != nil {
		return fmt.Errorf("persist watchlist: %w", err)
	}
	return nil
}
