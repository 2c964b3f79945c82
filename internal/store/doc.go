// Package store implements the in-memory market data store.
//
// All merges, push or poll, funnel through one path: last write wins
// per instrument code, insertion order preserved for first-seen codes.
// Consumers subscribe for synchronous snapshot notifications after
// every merge; each gets its own copy.
package store
