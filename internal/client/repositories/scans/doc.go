// Package scans provides the client-side persistence layer for scan records.
//
// # Overview
//
// The package defines a Repository interface for the scan record collection
// (see internal/client/models.ScanRecord). A SQLite-backed implementation
// (SQLiteRepository) persists data using a dbx.DBTX (either *sql.DB or *sql.Tx).
//
// # Data Model
//
// Records are keyed by sync_id. The synced flag marks records acknowledged by
// the remote store, deleted marks soft-deleted records still waiting for the
// deletion to round-trip, and revision counts local mutations so that an
// acknowledgement only applies to the revision that was actually submitted.
//
// Key Types
//
//   - type Repository: interface used by the store and services
//   - type SQLiteRepository: SQLite implementation over dbx.DBTX
//
// Typical Usage
//
//	repo := scans.NewSQLiteRepository(db)
//	_ = repo.CreateOrUpdate(ctx, rec)
//	pending, _ := repo.GetAllPending(ctx)
//	ok, _ := repo.MarkSynced(ctx, rec.SyncID, rec.Revision)
package scans
