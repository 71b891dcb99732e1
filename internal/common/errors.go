// Package common defines shared constants and sentinel errors used across
// the stock counter client layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Store errors.
	ErrStoreUnavailable = errors.New("local store unavailable")
	ErrNotFound         = errors.New("not found")

	// Scan record validation / transition errors.
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrRecordDeleted   = errors.New("record is marked for deletion")

	// Synchronization outcomes.
	ErrNetworkFailure = errors.New("network failure")
	ErrSyncFailed     = errors.New("sync failed")
	ErrPartialSync    = errors.New("partial sync")

	// Reference data.
	ErrReferenceLoad   = errors.New("reference data load failed")
	ErrDegradedSession = errors.New("no cached locations, session is degraded")

	// Session flow.
	ErrNotLoggedIn          = errors.New("not logged in")
	ErrNoActiveSession      = errors.New("no active stocktake")
	ErrConfirmationRequired = errors.New("confirmation required")
)
