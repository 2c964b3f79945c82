// Package database provides PostgreSQL connection pool management for
// the optional postgres watchlist backend.
package database
