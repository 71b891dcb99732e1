package scans

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/stockcounter/internal/client/migrations"
	"github.com/dmitrijs2005/stockcounter/internal/client/models"
	"github.com/dmitrijs2005/stockcounter/internal/common"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	require.NoError(t, err)
	_, err = p.Up(context.Background())
	require.NoError(t, err)

	return db
}

func rec(id, stocktake string, ts time.Time) *models.ScanRecord {
	return &models.ScanRecord{
		SyncID:      id,
		Barcode:     "111",
		ProductName: "Widget",
		Quantity:    2,
		Location:    "Bar",
		User:        "alice",
		StocktakeID: stocktake,
		Timestamp:   ts,
		Origin:      models.OriginLocal,
		Revision:    1,
	}
}

func TestCreateOrUpdate_InsertAndUpdate(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	e := rec("id1", "st1", ts)
	stock := 12.5
	e.StockLevel = &stock
	require.NoError(t, r.CreateOrUpdate(ctx, e))

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, e, got)

	lm := ts.Add(time.Minute)
	e.Quantity = 7
	e.LastModified = &lm
	e.Revision = 2
	require.NoError(t, r.CreateOrUpdate(ctx, e))

	got, err = r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, 7.0, got.Quantity)
	assert.Equal(t, int64(2), got.Revision)
	require.NotNil(t, got.LastModified)
	assert.True(t, lm.Equal(*got.LastModified))
	assert.Nil(t, got.Value)

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetByID_NotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	_, err := r.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListActive_FiltersAndOrders(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, r.CreateOrUpdate(ctx, rec("a", "st1", base)))
	require.NoError(t, r.CreateOrUpdate(ctx, rec("b", "st1", base.Add(time.Second))))
	require.NoError(t, r.CreateOrUpdate(ctx, rec("c", "st2", base.Add(2*time.Second))))
	d := rec("d", "st1", base.Add(3*time.Second))
	d.Deleted = true
	require.NoError(t, r.CreateOrUpdate(ctx, d))

	list, err := r.ListActive(ctx, "st1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].SyncID)
	assert.Equal(t, "a", list[1].SyncID)

	list, err = r.ListActive(ctx, "")
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, "c", list[0].SyncID)
}

func TestPendingAndCount(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	a := rec("a", "st1", base)
	a.Synced = true
	require.NoError(t, r.CreateOrUpdate(ctx, a))
	require.NoError(t, r.CreateOrUpdate(ctx, rec("b", "st1", base.Add(time.Second))))
	c := rec("c", "st2", base.Add(2*time.Second))
	c.Deleted = true
	require.NoError(t, r.CreateOrUpdate(ctx, c))

	pending, err := r.GetAllPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "b", pending[0].SyncID)
	assert.Equal(t, "c", pending[1].SyncID)

	n, err := r.CountPending(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = r.CountPending(ctx, "st1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMarkSynced_RevisionGuard(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	e := rec("a", "st1", time.Now())
	e.Revision = 3
	require.NoError(t, r.CreateOrUpdate(ctx, e))

	ok, err := r.MarkSynced(ctx, "a", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.False(t, got.Synced)

	ok, err = r.MarkSynced(ctx, "a", 3)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = r.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.Synced)
}

func TestMarkSynced_SkipsDeleted(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	e := rec("a", "st1", time.Now())
	e.Deleted = true
	require.NoError(t, r.CreateOrUpdate(ctx, e))

	ok, err := r.MarkSynced(ctx, "a", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPurgeDeleted(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	live := rec("live", "st1", time.Now())
	require.NoError(t, r.CreateOrUpdate(ctx, live))
	gone := rec("gone", "st1", time.Now())
	gone.Deleted = true
	gone.Revision = 2
	require.NoError(t, r.CreateOrUpdate(ctx, gone))

	ok, err := r.PurgeDeleted(ctx, "live", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.PurgeDeleted(ctx, "gone", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.PurgeDeleted(ctx, "gone", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = r.GetByID(ctx, "gone")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteByID(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.CreateOrUpdate(ctx, rec("a", "st1", time.Now())))
	require.NoError(t, r.DeleteByID(ctx, "a"))
	assert.ErrorIs(t, r.DeleteByID(ctx, "a"), common.ErrNotFound)
}
