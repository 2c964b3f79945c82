// Package calendar implements the Shanghai exchange trading-session
// state machine.
//
// A trading day splits into pre-market call auction (09:15-09:30),
// morning session (09:30-11:30 inclusive), noon break (11:30-13:00),
// afternoon session (13:00-15:00) and after hours. Weekends short-
// circuit everything. Classify is pure so callers can evaluate
// arbitrary instants; RecommendedPollInterval turns a session into a
// REST poll cadence for the scheduler.
package calendar
