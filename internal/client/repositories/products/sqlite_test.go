package products

import (
	"context"
	"database/sql"
	"testing"

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

var catalogue = []models.Product{
	{Barcode: "5000112637922", Name: "Cola 330ml", Stock: 24, Value: 1.2},
	{Barcode: "5010477348678", Name: "Tonic Water", Stock: 6, Value: 0.9},
	{Barcode: "0001", Name: "House Red", Stock: 3, Value: 11},
}

func TestReplaceAll_AndLookup(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.ReplaceAll(ctx, catalogue))

	p, err := r.GetByBarcode(ctx, "0001")
	require.NoError(t, err)
	assert.Equal(t, catalogue[2], *p)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, r.ReplaceAll(ctx, catalogue[:1]))
	n, err = r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = r.GetByBarcode(ctx, "0001")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSearch_MatchesNameAndBarcode(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	require.NoError(t, r.ReplaceAll(ctx, catalogue))

	got, err := r.Search(ctx, "tonic", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "5010477348678", got[0].Barcode)

	got, err = r.Search(ctx, "5000", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Cola 330ml", got[0].Name)

	got, err = r.Search(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = r.Search(ctx, "nothing-like-this", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_WildcardsMatchLiterally(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	require.NoError(t, r.ReplaceAll(ctx, []models.Product{
		{Barcode: "1", Name: "Vodka 40% 1L"},
		{Barcode: "2", Name: "Vodka 400ml"},
		{Barcode: "3", Name: "gin_tonic"},
		{Barcode: "4", Name: "ginXtonic"},
	}))

	got, err := r.Search(ctx, "40%", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].Barcode)

	got, err = r.Search(ctx, "gin_", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].Barcode)

	got, err = r.Search(ctx, "%", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].Barcode)
}

func TestCreateOrUpdate_GetAllAndDelete(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.CreateOrUpdate(ctx, catalogue[0]))
	require.NoError(t, r.CreateOrUpdate(ctx, catalogue[1]))

	updated := catalogue[0]
	updated.Stock = 30
	require.NoError(t, r.CreateOrUpdate(ctx, updated))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Product{updated, catalogue[1]}, all)

	require.NoError(t, r.DeleteByBarcode(ctx, updated.Barcode))
	assert.ErrorIs(t, r.DeleteByBarcode(ctx, updated.Barcode), common.ErrNotFound)

	all, err = r.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Product{catalogue[1]}, all)
}
