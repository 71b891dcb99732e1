package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/stockcounter/internal/client/migrations"
	"github.com/dmitrijs2005/stockcounter/internal/client/models"
	"github.com/dmitrijs2005/stockcounter/internal/client/repositories/locations"
	"github.com/dmitrijs2005/stockcounter/internal/client/repositories/products"
	"github.com/dmitrijs2005/stockcounter/internal/client/repositories/scans"
	"github.com/dmitrijs2005/stockcounter/internal/client/repositories/state"
	"github.com/dmitrijs2005/stockcounter/internal/common"
	"github.com/dmitrijs2005/stockcounter/internal/dbx"
	"github.com/dmitrijs2005/stockcounter/internal/logging"
	"github.com/pressly/goose/v3"
)

// Ack identifies one acknowledged record at the revision that was submitted.
type Ack struct {
	SyncID   string
	Revision int64
}

type Store struct {
	path string
	log  logging.Logger

	mu    sync.Mutex
	db    *sql.DB
	ready atomic.Bool

	scans     scans.Repository
	products  products.Repository
	locations locations.Repository
	state     state.Repository
}

// New returns an uninitialised store for the SQLite file at path.
func New(path string, log logging.Logger) *Store {
	return &Store{path: path, log: log}
}

// Init opens the database and applies pending migrations. It is idempotent.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready.Load() {
		return nil
	}

	db, err := dbx.OpenSQLite(ctx, s.path)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	s.db = db
	s.scans = scans.NewSQLiteRepository(db)
	s.products = products.NewSQLiteRepository(db)
	s.locations = locations.NewSQLiteRepository(db)
	s.state = state.NewSQLiteRepository(db)
	s.ready.Store(true)

	s.log.Info(ctx, "local store ready", "path", s.path)
	return nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Close releases the database. The store must be re-initialised afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready.Load() {
		return nil
	}
	s.ready.Store(false)
	return s.db.Close()
}

func (s *Store) Ready() bool {
	return s.ready.Load()
}

func (s *Store) check() error {
	if !s.ready.Load() {
		return common.ErrStoreUnavailable
	}
	return nil
}

func (s *Store) tx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return dbx.WithTx(ctx, s.db, nil, fn)
}

// PutScan creates or replaces a scan record by SyncID.
func (s *Store) PutScan(ctx context.Context, rec *models.ScanRecord) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.scans.CreateOrUpdate(ctx, rec)
}

func (s *Store) GetScan(ctx context.Context, id string) (*models.ScanRecord, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.scans.GetByID(ctx, id)
}

// AllScans returns every record, soft-deleted ones included.
func (s *Store) AllScans(ctx context.Context) ([]models.ScanRecord, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.scans.GetAll(ctx)
}

// ActiveScans lists non-deleted records of a stocktake, newest first.
func (s *Store) ActiveScans(ctx context.Context, stocktakeID string) ([]models.ScanRecord, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.scans.ListActive(ctx, stocktakeID)
}

// PendingScans returns every record with synced=false.
func (s *Store) PendingScans(ctx context.Context) ([]models.ScanRecord, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.scans.GetAllPending(ctx)
}

// CountPending counts unsynced records; an empty stocktakeID counts all.
func (s *Store) CountPending(ctx context.Context, stocktakeID string) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	return s.scans.CountPending(ctx, stocktakeID)
}

func (s *Store) DeleteScan(ctx context.Context, id string) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.scans.DeleteByID(ctx, id)
}

// UpdateScan applies fn to the stored record and writes the result back in
// one transaction.
func (s *Store) UpdateScan(ctx context.Context, id string, fn func(models.ScanRecord) (models.ScanRecord, error)) (*models.ScanRecord, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	var out models.ScanRecord
	err := s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := scans.NewSQLiteRepository(tx)
		cur, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		next, err := fn(*cur)
		if err != nil {
			return err
		}
		if err := repo.CreateOrUpdate(ctx, &next); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkSynced flags the acknowledged records as synced and returns how many
// rows changed. Acks whose revision no longer matches are ignored.
func (s *Store) MarkSynced(ctx context.Context, acks []Ack) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	return s.applyAcks(ctx, acks, func(repo *scans.SQLiteRepository, a Ack) (bool, error) {
		return repo.MarkSynced(ctx, a.SyncID, a.Revision)
	})
}

// PurgeDeleted physically removes acknowledged soft-deleted records.
func (s *Store) PurgeDeleted(ctx context.Context, acks []Ack) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	return s.applyAcks(ctx, acks, func(repo *scans.SQLiteRepository, a Ack) (bool, error) {
		return repo.PurgeDeleted(ctx, a.SyncID, a.Revision)
	})
}

func (s *Store) applyAcks(ctx context.Context, acks []Ack, apply func(*scans.SQLiteRepository, Ack) (bool, error)) (int, error) {
	if len(acks) == 0 {
		return 0, nil
	}
	n := 0
	err := s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := scans.NewSQLiteRepository(tx)
		for _, a := range acks {
			ok, err := apply(repo, a)
			if err != nil {
				return err
			}
			if ok {
				n++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// MergeRemote stores records downloaded from the remote store. A record is
// skipped when a local copy exists that is unsynced or soft-deleted, so
// pending local work is never overwritten. It returns the number stored.
func (s *Store) MergeRemote(ctx context.Context, recs []models.ScanRecord) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	n := 0
	err := s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := scans.NewSQLiteRepository(tx)
		n = 0
		for i := range recs {
			cur, err := repo.GetByID(ctx, recs[i].SyncID)
			switch {
			case errors.Is(err, common.ErrNotFound):
			case err != nil:
				return err
			case !cur.Synced || cur.Deleted:
				continue
			}
			if err := repo.CreateOrUpdate(ctx, &recs[i]); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ReplaceReference swaps the product and location caches together in one
// transaction.
func (s *Store) ReplaceReference(ctx context.Context, items []models.Product, names []string) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := products.NewSQLiteRepository(tx).ReplaceAll(ctx, items); err != nil {
			return err
		}
		return locations.NewSQLiteRepository(tx).ReplaceAll(ctx, names)
	})
}

// Product looks a barcode up in the cache; unknown barcodes yield
// common.ErrNotFound.
func (s *Store) Product(ctx context.Context, barcode string) (*models.Product, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.products.GetByBarcode(ctx, barcode)
}

func (s *Store) SearchProducts(ctx context.Context, text string, limit int) ([]models.Product, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.products.Search(ctx, text, limit)
}

func (s *Store) ProductCount(ctx context.Context) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	return s.products.Count(ctx)
}

func (s *Store) AllProducts(ctx context.Context) ([]models.Product, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.products.GetAll(ctx)
}

func (s *Store) PutProduct(ctx context.Context, p models.Product) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.products.CreateOrUpdate(ctx, p)
}

func (s *Store) DeleteProduct(ctx context.Context, barcode string) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.products.DeleteByBarcode(ctx, barcode)
}

func (s *Store) PutLocation(ctx context.Context, name string) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.locations.CreateOrUpdate(ctx, name)
}

func (s *Store) HasLocation(ctx context.Context, name string) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	return s.locations.Exists(ctx, name)
}

func (s *Store) DeleteLocation(ctx context.Context, name string) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.locations.DeleteByName(ctx, name)
}

func (s *Store) Locations(ctx context.Context) ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.locations.GetAll(ctx)
}

// LoadState decodes the JSON slot key into v and reports whether it existed.
func (s *Store) LoadState(ctx context.Context, key string, v any) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	raw, ok, err := s.state.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to decode state[%s]: %w", key, err)
	}
	return true, nil
}

// SaveState stores v as JSON in slot key. A nil v (or nil pointer) clears
// the slot.
func (s *Store) SaveState(ctx context.Context, key string, v any) error {
	if err := s.check(); err != nil {
		return err
	}
	if v == nil {
		return s.state.Delete(ctx, key)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode state[%s]: %w", key, err)
	}
	if string(raw) == "null" {
		return s.state.Delete(ctx, key)
	}
	return s.state.Put(ctx, key, raw)
}

// ClearState removes the given slots in one transaction.
func (s *Store) ClearState(ctx context.Context, keys ...string) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := state.NewSQLiteRepository(tx)
		for _, k := range keys {
			if err := repo.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})
}
