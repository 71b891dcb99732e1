package client

import (
	"context"

	"github.com/dmitrijs2005/stockcounter/internal/client/models"
)

// Gateway is the remote stock store as seen by the client.
type Gateway interface {
	Authenticate(ctx context.Context, username, password string) error
	FetchProducts(ctx context.Context) ([]models.Product, error)
	FetchLocations(ctx context.Context) ([]string, error)
	CreateSession(ctx context.Context, name, user string) (*models.Stocktake, error)
	ListSessions(ctx context.Context) ([]models.StocktakeInfo, error)
	FetchUserRecords(ctx context.Context, stocktakeID, username string) ([]models.ScanRecord, error)

	// UpsertBatch submits records and returns the syncIds the remote store
	// acknowledged. Unlisted ids were not stored. A count-only reply that
	// covers the batch acknowledges every record; a partial one returns
	// ErrUnconfirmed.
	UpsertBatch(ctx context.Context, stocktakeID string, recs []models.ScanRecord) ([]string, error)

	// DeleteBatch asks the remote store to remove records and returns the
	// syncIds confirmed as deleted (including ids it never had). Count-only
	// replies are resolved as for UpsertBatch.
	DeleteBatch(ctx context.Context, stocktakeID string, syncIDs []string) ([]string, error)

	Ping(ctx context.Context) error
	Close() error
}
