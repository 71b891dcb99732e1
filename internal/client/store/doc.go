// Package store is the durable local store of the client.
//
// A Store owns one SQLite database and exposes typed operations over four
// collections: scan records, cached products, cached locations and named
// application-state slots. Single-row writes are atomic per call; multi-row
// writes (reference replacement, acknowledgement application, merging server
// records) run inside one transaction.
//
// Every method fails with common.ErrStoreUnavailable until Init succeeds.
// Init opens the database and applies the embedded goose migrations; calling
// it again is a no-op.
package store
