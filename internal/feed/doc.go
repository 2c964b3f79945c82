// Package feed owns the data-path lifecycle: it routes push batches
// and poll results into the store and gates the REST poller on the
// push-channel connection state and the trading calendar.
package feed
