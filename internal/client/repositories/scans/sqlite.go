package scans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/stockcounter/internal/client/models"
	"github.com/dmitrijs2005/stockcounter/internal/common"
	"github.com/dmitrijs2005/stockcounter/internal/dbx"
)

// timeLayout has a fixed-width fraction so stored timestamps sort
// chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const columns = `sync_id, barcode, product_name, quantity, location, user_name, stocktake_id,
	created_at, stock_level, value, is_manual_entry, synced, deleted, last_modified, origin, revision`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreateOrUpdate upserts a record by sync_id.
func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, rec *models.ScanRecord) error {
	query := `INSERT INTO scans (` + columns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(sync_id) DO UPDATE SET
				barcode = excluded.barcode,
				product_name = excluded.product_name,
				quantity = excluded.quantity,
				location = excluded.location,
				user_name = excluded.user_name,
				stocktake_id = excluded.stocktake_id,
				created_at = excluded.created_at,
				stock_level = excluded.stock_level,
				value = excluded.value,
				is_manual_entry = excluded.is_manual_entry,
				synced = excluded.synced,
				deleted = excluded.deleted,
				last_modified = excluded.last_modified,
				origin = excluded.origin,
				revision = excluded.revision
	`
	origin := rec.Origin
	if origin == "" {
		origin = models.OriginLocal
	}
	_, err := r.db.ExecContext(ctx, query,
		rec.SyncID, rec.Barcode, rec.ProductName, rec.Quantity, rec.Location, rec.User, rec.StocktakeID,
		formatTime(rec.Timestamp), nullFloat(rec.StockLevel), nullFloat(rec.Value), rec.IsManualEntry,
		rec.Synced, rec.Deleted, nullTime(rec.LastModified), string(origin), rec.Revision)
	if err != nil {
		return fmt.Errorf("failed to upsert scan: %w", err)
	}
	return nil
}

// GetByID returns a single record.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.ScanRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM scans WHERE sync_id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scan %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return rec, nil
}

// GetAll lists every record ordered by creation time.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.ScanRecord, error) {
	return r.list(ctx, `SELECT `+columns+` FROM scans ORDER BY created_at, sync_id`)
}

// ListActive lists non-deleted records, newest first.
func (r *SQLiteRepository) ListActive(ctx context.Context, stocktakeID string) ([]models.ScanRecord, error) {
	if stocktakeID == "" {
		return r.list(ctx, `SELECT `+columns+` FROM scans WHERE deleted = 0 ORDER BY created_at DESC, sync_id`)
	}
	return r.list(ctx, `SELECT `+columns+` FROM scans WHERE deleted = 0 AND stocktake_id = ?
		ORDER BY created_at DESC, sync_id`, stocktakeID)
}

// GetAllPending returns records flagged synced=0, oldest first.
func (r *SQLiteRepository) GetAllPending(ctx context.Context) ([]models.ScanRecord, error) {
	return r.list(ctx, `SELECT `+columns+` FROM scans WHERE synced = 0 ORDER BY created_at, sync_id`)
}

// CountPending counts records flagged synced=0.
func (r *SQLiteRepository) CountPending(ctx context.Context, stocktakeID string) (int, error) {
	var (
		n   int
		err error
	)
	if stocktakeID == "" {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scans WHERE synced = 0`).Scan(&n)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scans WHERE synced = 0 AND stocktake_id = ?`,
			stocktakeID).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count pending scans: %w", err)
	}
	return n, nil
}

// DeleteByID removes a record. Missing records yield common.ErrNotFound.
func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scans WHERE sync_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return fmt.Errorf("scan %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// MarkSynced sets synced=1 for a live record at the given revision.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, revision int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE scans SET synced = 1 WHERE sync_id = ? AND revision = ? AND deleted = 0`, id, revision)
	if err != nil {
		return false, fmt.Errorf("failed to mark scan synced: %w", err)
	}
	return affected(res)
}

// PurgeDeleted removes a soft-deleted record at the given revision.
func (r *SQLiteRepository) PurgeDeleted(ctx context.Context, id string, revision int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM scans WHERE sync_id = ? AND revision = ? AND deleted = 1`, id, revision)
	if err != nil {
		return false, fmt.Errorf("failed to purge scan: %w", err)
	}
	return affected(res)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.ScanRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select scans: %w", err)
	}
	defer rows.Close()

	result := make([]models.ScanRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.ScanRecord, error) {
	var (
		rec          models.ScanRecord
		createdAt    string
		stockLevel   sql.NullFloat64
		value        sql.NullFloat64
		lastModified sql.NullString
		origin       string
	)
	err := row.Scan(&rec.SyncID, &rec.Barcode, &rec.ProductName, &rec.Quantity, &rec.Location, &rec.User,
		&rec.StocktakeID, &createdAt, &stockLevel, &value, &rec.IsManualEntry, &rec.Synced, &rec.Deleted,
		&lastModified, &origin, &rec.Revision)
	if err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	rec.Timestamp = ts
	if lastModified.Valid {
		lm, err := time.Parse(time.RFC3339Nano, lastModified.String)
		if err != nil {
			return nil, fmt.Errorf("bad last_modified %q: %w", lastModified.String, err)
		}
		rec.LastModified = &lm
	}
	if stockLevel.Valid {
		v := stockLevel.Float64
		rec.StockLevel = &v
	}
	if value.Valid {
		v := value.Float64
		rec.Value = &v
	}
	rec.Origin = models.Origin(origin)
	return &rec, nil
}

func affected(res sql.Result) (bool, error) {
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ra > 0, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
