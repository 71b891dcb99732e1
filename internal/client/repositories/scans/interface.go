package scans

import (
	"context"

	"github.com/dmitrijs2005/stockcounter/internal/client/models"
)

// Repository describes CRUD and query operations for scan records.
type Repository interface {
	// CreateOrUpdate inserts a record or replaces the existing one by SyncID.
	CreateOrUpdate(ctx context.Context, rec *models.ScanRecord) error

	// GetByID returns a record by SyncID, deleted ones included.
	// Missing records yield common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.ScanRecord, error)

	// GetAll returns every stored record, including soft-deleted ones.
	GetAll(ctx context.Context) ([]models.ScanRecord, error)

	// ListActive returns non-deleted records, newest first. An empty
	// stocktakeID lists records of all stocktakes.
	ListActive(ctx context.Context, stocktakeID string) ([]models.ScanRecord, error)

	// GetAllPending returns records with synced=false (new, edited or
	// awaiting deletion), oldest first.
	GetAllPending(ctx context.Context) ([]models.ScanRecord, error)

	// CountPending counts records with synced=false. An empty stocktakeID
	// counts across all stocktakes.
	CountPending(ctx context.Context, stocktakeID string) (int, error)

	// DeleteByID physically removes a record.
	DeleteByID(ctx context.Context, id string) error

	// MarkSynced flags a non-deleted record as synced if it is still at
	// the given revision. It reports whether a row changed.
	MarkSynced(ctx context.Context, id string, revision int64) (bool, error)

	// PurgeDeleted removes a soft-deleted record if it is still at the
	// given revision. It reports whether a row was removed.
	PurgeDeleted(ctx context.Context, id string, revision int64) (bool, error)
}
