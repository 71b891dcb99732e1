// Package common contains shared constants and sentinel errors used across
// the stock counter components.
package common

// State slot names in the local app_state collection.
const (
	StateKeyUser            = "user"
	StateKeyCurrentSession  = "currentSession"
	StateKeyCurrentLocation = "currentLocation"
)

// UnknownProductName is shown for barcodes missing from the cached products.
const UnknownProductName = "UNKNOWN - Manual Entry Required"

// DefaultAutoSyncEvery is the number of captured records after which a sync
// pass is attempted when online.
const DefaultAutoSyncEvery = 10
