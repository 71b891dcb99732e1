package state

import (
	"context"
)

// Repository is a key/value store for application state slots.
type Repository interface {
	// Get returns the stored value and whether the slot exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}
