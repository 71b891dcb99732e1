package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/stockcounter/internal/client/models"
	"github.com/dmitrijs2005/stockcounter/internal/common"
	"github.com/dmitrijs2005/stockcounter/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, items []models.Product) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}

	for _, p := range items {
		if err := r.CreateOrUpdate(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, p models.Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (barcode, name, stock, value) VALUES (?, ?, ?, ?)
		ON CONFLICT(barcode) DO UPDATE SET
			name = excluded.name,
			stock = excluded.stock,
			value = excluded.value
	`, p.Barcode, p.Name, p.Stock, p.Value)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", p.Barcode, err)
	}
	return nil
}

func (r *SQLiteRepository) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	var p models.Product
	err := r.db.QueryRowContext(ctx,
		`SELECT barcode, name, stock, value FROM products WHERE barcode = ?`, barcode).
		Scan(&p.Barcode, &p.Name, &p.Stock, &p.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", barcode, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT barcode, name, stock, value FROM products ORDER BY name, barcode`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return collect(rows)
}

func (r *SQLiteRepository) DeleteByBarcode(ctx context.Context, barcode string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE barcode = ?`, barcode)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("product %s: %w", barcode, common.ErrNotFound)
	}
	return nil
}

// likeEscaper makes user text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *SQLiteRepository) Search(ctx context.Context, text string, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(text))) + "%"

	rows, err := r.db.QueryContext(ctx, `
		SELECT barcode, name, stock, value FROM products
		WHERE lower(barcode) LIKE ? ESCAPE '\' OR lower(name) LIKE ? ESCAPE '\'
		ORDER BY name, barcode
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]models.Product, error) {
	defer rows.Close()

	result := make([]models.Product, 0)
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.Barcode, &p.Name, &p.Stock, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}
