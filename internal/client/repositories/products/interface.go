package products

import (
	"context"

	"github.com/dmitrijs2005/stockcounter/internal/client/models"
)

type Repository interface {
	// ReplaceAll drops every cached product and stores items instead.
	// Run it inside a transaction so readers never see a half-written table.
	ReplaceAll(ctx context.Context, items []models.Product) error
	CreateOrUpdate(ctx context.Context, p models.Product) error
	// GetByBarcode returns common.ErrNotFound for unknown barcodes.
	GetByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	// GetAll returns products ordered by name.
	GetAll(ctx context.Context) ([]models.Product, error)
	// DeleteByBarcode returns common.ErrNotFound when nothing was removed.
	DeleteByBarcode(ctx context.Context, barcode string) error
	// Search matches text against barcode and name, case-insensitively.
	Search(ctx context.Context, text string, limit int) ([]models.Product, error)
	Count(ctx context.Context) (int, error)
}
