// Package model defines shared data types used across the market sync
// service.
//
// Conventions:
//   - Quotes: identified by instrument code; values mutate in place,
//     entries are replaced, never destroyed
//   - Sessions: typed string constants matching the upstream API
//   - Timestamps: time.Time in the exchange location (Asia/Shanghai)
package model
