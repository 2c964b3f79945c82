// Package watchlist persists the user's ordered set of instrument
// codes. The whole list lives under one KV key as a JSON array; it is
// loaded once at startup and rewritten on every mutation. SQLite is
// the default backend, Postgres the shared-instance alternative.
package watchlist
