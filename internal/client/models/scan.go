// Package models defines client-side data models used by the stock counter.
package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/stockcounter/internal/common"
	"github.com/google/uuid"
)

// Origin tells where a scan record came from.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginServer Origin = "server"
)

// ScanRecord is one counted quantity for one product, location, user and
// time. It is persisted locally and synced with the remote store.
type ScanRecord struct {
	// SyncID is the client-generated primary key. It is never reused.
	SyncID string

	// Barcode identifies the counted product; empty for manual entries.
	Barcode string

	// ProductName is the display name (free text for manual entries).
	ProductName string

	// Quantity is the count itself, always > 0.
	Quantity float64

	Location    string
	User        string
	StocktakeID string

	// Timestamp is the creation time in UTC and never changes.
	Timestamp time.Time

	// StockLevel and Value snapshot the reference data at capture time.
	StockLevel *float64
	Value      *float64

	IsManualEntry bool

	// Synced is false while local changes are not acknowledged remotely.
	Synced bool

	// Deleted marks a soft-deleted record awaiting remote acknowledgement.
	Deleted bool

	// LastModified is set on edit; informational only.
	LastModified *time.Time

	Origin Origin

	// Revision counts local mutations. Acknowledgements apply only to the
	// revision that was submitted.
	Revision int64
}

// ScanFields are the user-supplied values of a new scan record.
type ScanFields struct {
	Barcode       string
	ProductName   string
	Quantity      float64
	Location      string
	User          string
	StocktakeID   string
	StockLevel    *float64
	Value         *float64
	IsManualEntry bool
}

// NewScanRecord validates f and returns a fresh, unsynced record.
func NewScanRecord(f ScanFields, now time.Time) (*ScanRecord, error) {
	if err := ValidateQuantity(f.Quantity); err != nil {
		return nil, err
	}
	return &ScanRecord{
		SyncID:        uuid.NewString(),
		Barcode:       f.Barcode,
		ProductName:   f.ProductName,
		Quantity:      f.Quantity,
		Location:      f.Location,
		User:          f.User,
		StocktakeID:   f.StocktakeID,
		Timestamp:     now.UTC(),
		StockLevel:    f.StockLevel,
		Value:         f.Value,
		IsManualEntry: f.IsManualEntry,
		Origin:        OriginLocal,
		Revision:      1,
	}, nil
}

// Edit returns a copy of r with a new quantity. The copy is unsynced.
// Records marked for deletion can no longer be edited.
func (r ScanRecord) Edit(quantity float64, now time.Time) (ScanRecord, error) {
	if r.Deleted {
		return r, common.ErrRecordDeleted
	}
	if err := ValidateQuantity(quantity); err != nil {
		return r, err
	}
	t := now.UTC()
	r.Quantity = quantity
	r.Synced = false
	r.LastModified = &t
	r.Revision++
	return r, nil
}

// SoftDelete returns a copy of r marked for deletion.
func (r ScanRecord) SoftDelete(now time.Time) (ScanRecord, error) {
	if r.Deleted {
		return r, common.ErrRecordDeleted
	}
	t := now.UTC()
	r.Deleted = true
	r.Synced = false
	r.LastModified = &t
	r.Revision++
	return r, nil
}

// ValidateQuantity accepts finite, strictly positive values.
func ValidateQuantity(q float64) error {
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return fmt.Errorf("%w: %v", common.ErrInvalidQuantity, q)
	}
	return nil
}

// ParseQuantity parses user input into a valid quantity.
func ParseQuantity(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", common.ErrInvalidQuantity)
	}
	q, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", common.ErrInvalidQuantity, s)
	}
	if err := ValidateQuantity(q); err != nil {
		return 0, err
	}
	return q, nil
}
