// Package state stores small named application-state slots (signed-in
// user, current stocktake, current location) as opaque JSON blobs in the
// app_state table.
package state
