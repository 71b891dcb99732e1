package locations

import "context"

type Repository interface {
	// ReplaceAll stores names in the given order, dropping previous rows.
	ReplaceAll(ctx context.Context, names []string) error
	// CreateOrUpdate appends name after the existing locations. Known names
	// keep their position.
	CreateOrUpdate(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
	// GetAll returns names in their original order.
	GetAll(ctx context.Context) ([]string, error)
	// DeleteByName returns common.ErrNotFound when nothing was removed.
	DeleteByName(ctx context.Context, name string) error
}
