package locations

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/stockcounter/internal/common"
	"github.com/dmitrijs2005/stockcounter/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, names []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM locations`); err != nil {
		return fmt.Errorf("failed to clear locations: %w", err)
	}
	for i, n := range names {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO locations (name, position) VALUES (?, ?)
			ON CONFLICT(name) DO NOTHING
		`, n, i)
		if err != nil {
			return fmt.Errorf("failed to insert location %q: %w", n, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM locations ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	result := make([]string, 0)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan location row: %w", err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO locations (name, position)
		VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM locations))
		ON CONFLICT(name) DO NOTHING
	`, name)
	if err != nil {
		return fmt.Errorf("failed to upsert location %q: %w", name, err)
	}
	return nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM locations WHERE name = ?`, name).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to look up location: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) DeleteByName(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM locations WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("location %q: %w", name, common.ErrNotFound)
	}
	return nil
}
