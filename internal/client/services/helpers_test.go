package services

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/stockcounter/internal/client/client"
	"github.com/dmitrijs2005/stockcounter/internal/client/models"
	"github.com/dmitrijs2005/stockcounter/internal/client/store"
	"github.com/dmitrijs2005/stockcounter/internal/logging"
	"github.com/stretchr/testify/require"
)

/*************
 * Fake gateway
 *************/

type fakeGateway struct {
	client.Gateway

	mu     sync.Mutex
	remote map[string]models.ScanRecord

	upsertCalls atomic.Int32
	deleteCalls atomic.Int32
	upserted    [][]models.ScanRecord
	deleted     [][]string
	stocktakes  []string

	// optional overrides
	upsertFn func(stocktakeID string, recs []models.ScanRecord) ([]string, error)
	deleteFn func(stocktakeID string, ids []string) ([]string, error)

	// when set, UpsertBatch signals entered and waits for release
	entered chan struct{}
	release chan struct{}

	products  []models.Product
	locations []string
	refErr    error

	authErr     error
	created     *models.Stocktake
	list        []models.StocktakeInfo
	userRecords []models.ScanRecord
	userErr     error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		remote:    map[string]models.ScanRecord{},
		products:  []models.Product{{Barcode: "123", Name: "Cola 330ml", Stock: 24, Value: 1.2}},
		locations: []string{"Bar", "Cellar"},
	}
}

func (f *fakeGateway) UpsertBatch(ctx context.Context, stocktakeID string, recs []models.ScanRecord) ([]string, error) {
	f.upsertCalls.Add(1)
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}

	f.mu.Lock()
	f.upserted = append(f.upserted, append([]models.ScanRecord(nil), recs...))
	f.stocktakes = append(f.stocktakes, stocktakeID)
	f.mu.Unlock()

	if f.upsertFn != nil {
		return f.upsertFn(stocktakeID, recs)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		f.remote[r.SyncID] = r
		ids = append(ids, r.SyncID)
	}
	return ids, nil
}

func (f *fakeGateway) DeleteBatch(ctx context.Context, stocktakeID string, ids []string) ([]string, error) {
	f.deleteCalls.Add(1)

	f.mu.Lock()
	f.deleted = append(f.deleted, append([]string(nil), ids...))
	f.mu.Unlock()

	if f.deleteFn != nil {
		return f.deleteFn(stocktakeID, ids)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.remote, id)
	}
	return ids, nil
}

func (f *fakeGateway) FetchProducts(ctx context.Context) ([]models.Product, error) {
	if f.refErr != nil {
		return nil, f.refErr
	}
	return f.products, nil
}

func (f *fakeGateway) FetchLocations(ctx context.Context) ([]string, error) {
	if f.refErr != nil {
		return nil, f.refErr
	}
	return f.locations, nil
}

func (f *fakeGateway) Authenticate(ctx context.Context, username, password string) error {
	return f.authErr
}

func (f *fakeGateway) CreateSession(ctx context.Context, name, user string) (*models.Stocktake, error) {
	if f.created != nil {
		return f.created, nil
	}
	return &models.Stocktake{ID: "st-new", Name: name}, nil
}

func (f *fakeGateway) ListSessions(ctx context.Context) ([]models.StocktakeInfo, error) {
	return f.list, nil
}

func (f *fakeGateway) FetchUserRecords(ctx context.Context, stocktakeID, username string) ([]models.ScanRecord, error) {
	return f.userRecords, f.userErr
}

func (f *fakeGateway) remoteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.remote)
}

/*************
 * Helpers
 *************/

type staticOnline struct{ v atomic.Bool }

func online(v bool) *staticOnline {
	s := &staticOnline{}
	s.v.Store(v)
	return s
}

func (s *staticOnline) IsOnline() bool { return s.v.Load() }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "client.db"), logging.Nop())
	require.NoError(t, st.Init(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func activeSession(stocktakeID string) models.Session {
	return models.Session{
		User:      &models.User{Username: "alice"},
		Stocktake: &models.Stocktake{ID: stocktakeID, Name: "March"},
		Location:  "Bar",
	}
}

func putRecord(t *testing.T, st *store.Store, stocktakeID, barcode string, qty float64) *models.ScanRecord {
	t.Helper()
	r, err := models.NewScanRecord(models.ScanFields{
		Barcode:     barcode,
		ProductName: "Item " + barcode,
		Quantity:    qty,
		Location:    "Bar",
		User:        "alice",
		StocktakeID: stocktakeID,
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, st.PutScan(context.Background(), r))
	return r
}

func getRecord(t *testing.T, st *store.Store, id string) *models.ScanRecord {
	t.Helper()
	r, err := st.GetScan(context.Background(), id)
	require.NoError(t, err)
	return r
}
