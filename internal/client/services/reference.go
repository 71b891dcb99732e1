package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/stockcounter/internal/client/client"
	"github.com/dmitrijs2005/stockcounter/internal/client/models"
	"github.com/dmitrijs2005/stockcounter/internal/client/store"
	"github.com/dmitrijs2005/stockcounter/internal/common"
	"github.com/dmitrijs2005/stockcounter/internal/logging"
	"golang.org/x/sync/errgroup"
)

// RefreshResult describes the reference data available after a refresh.
type RefreshResult struct {
	Products  int
	Locations []string
	// FromCache is true when the download failed and the cached copy is used.
	FromCache bool
}

// ReferenceService keeps the product and location cache current.
type ReferenceService interface {
	// Refresh downloads products and locations and replaces the cache. On
	// failure the cached copy stays in place and the error wraps
	// common.ErrReferenceLoad; with no cached locations at all it also
	// wraps common.ErrDegradedSession.
	Refresh(ctx context.Context) (RefreshResult, error)
	Lookup(ctx context.Context, barcode string) (*models.Product, error)
	Search(ctx context.Context, text string, limit int) ([]models.Product, error)
	Products(ctx context.Context) ([]models.Product, error)
	Locations(ctx context.Context) ([]string, error)
}

type referenceService struct {
	gateway client.Gateway
	store   *store.Store
	log     logging.Logger
}

func NewReferenceService(gateway client.Gateway, st *store.Store, log logging.Logger) ReferenceService {
	return &referenceService{gateway: gateway, store: st, log: log.With("component", "reference")}
}

func (s *referenceService) Refresh(ctx context.Context) (RefreshResult, error) {
	var (
		products  []models.Product
		locations []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.gateway.FetchProducts(gctx)
		if err != nil {
			return fmt.Errorf("products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		locations, err = s.gateway.FetchLocations(gctx)
		if err != nil {
			return fmt.Errorf("locations: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.log.Warn(ctx, "reference download failed, using cache", "error", err)
		return s.fromCache(ctx, err)
	}

	if err := s.store.ReplaceReference(ctx, products, locations); err != nil {
		return RefreshResult{}, fmt.Errorf("failed to cache reference data: %w", err)
	}

	s.log.Info(ctx, "reference data refreshed", "products", len(products), "locations", len(locations))
	return RefreshResult{Products: len(products), Locations: locations}, nil
}

func (s *referenceService) fromCache(ctx context.Context, cause error) (RefreshResult, error) {
	res := RefreshResult{FromCache: true}

	n, err := s.store.ProductCount(ctx)
	if err != nil {
		return res, err
	}
	locs, err := s.store.Locations(ctx)
	if err != nil {
		return res, err
	}
	res.Products, res.Locations = n, locs

	if len(locs) == 0 {
		return res, fmt.Errorf("%w: %w: %w", common.ErrDegradedSession, common.ErrReferenceLoad, cause)
	}
	return res, fmt.Errorf("%w: %w", common.ErrReferenceLoad, cause)
}

func (s *referenceService) Lookup(ctx context.Context, barcode string) (*models.Product, error) {
	return s.store.Product(ctx, barcode)
}

func (s *referenceService) Search(ctx context.Context, text string, limit int) ([]models.Product, error) {
	return s.store.SearchProducts(ctx, text, limit)
}

func (s *referenceService) Products(ctx context.Context) ([]models.Product, error) {
	return s.store.AllProducts(ctx)
}

func (s *referenceService) Locations(ctx context.Context) ([]string, error) {
	return s.store.Locations(ctx)
}
