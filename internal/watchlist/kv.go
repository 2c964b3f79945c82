package watchlist

import "context"

// KV is the persistence interface behind the watchlist. One key holds
// the whole encoded list; backends only need get/put semantics.
type KV interface {
	// Get returns the value for key. found is false when the key has
	// never been written.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Put writes the value for key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Close releases backend resources.
	Close() error
}
