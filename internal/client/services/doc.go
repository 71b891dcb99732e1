// Package services contains the application services of the stock counter
// client: the sync engine, scan capture with auto-sync, reference data
// refresh with cache fallback, and the session state machine.
//
// Services hold no ambient globals. The active user, stocktake and location
// travel as an explicit models.Session value; the SessionService owns the
// persisted copy of it.
package services
