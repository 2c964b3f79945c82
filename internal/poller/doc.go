// Package poller implements the REST polling scheduler.
//
// The poller:
//   - Fetches a full quote snapshot when the push channel cannot
//   - Re-resolves its interval every iteration (session-driven cadence)
//   - Idles itself when the resolver reports no polling is needed
//   - Tolerates fetch failures by keeping the previous snapshot
package poller
