package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/stockcounter/internal/client/models"
	"github.com/dmitrijs2005/stockcounter/internal/client/store"
	"github.com/dmitrijs2005/stockcounter/internal/common"
	"github.com/dmitrijs2005/stockcounter/internal/logging"
)

// OnlineChecker reports the current connectivity state.
type OnlineChecker interface {
	IsOnline() bool
}

// CaptureInput is what the user entered for one scan.
type CaptureInput struct {
	Barcode string
	// ProductName names a manual entry; ignored when the barcode is known.
	ProductName string
	Quantity    float64
}

// CaptureResult is the stored record plus the auto-sync outcome, if a pass
// was triggered by this capture.
type CaptureResult struct {
	Record  *models.ScanRecord
	Sync    *SyncResult
	SyncErr error
}

// Stats are the counters shown in the status line.
type Stats struct {
	Total    int
	Unsynced int
}

// ScanService records, edits and deletes scans for the active session.
type ScanService interface {
	Capture(ctx context.Context, sess models.Session, in CaptureInput) (*CaptureResult, error)
	Edit(ctx context.Context, syncID string, quantity float64) (*models.ScanRecord, error)
	Delete(ctx context.Context, syncID string) error
	List(ctx context.Context, sess models.Session) ([]models.ScanRecord, error)
	Search(ctx context.Context, text string) ([]models.Product, error)
	Stats(ctx context.Context, sess models.Session) (Stats, error)
}

type scanService struct {
	store     *store.Store
	reference ReferenceService
	engine    SyncEngine
	online    OnlineChecker
	log       logging.Logger
	now       func() time.Time

	autoSyncEvery int64
	// captured counts scans since the pass numbered seenPass.
	captured atomic.Int64
	seenPass atomic.Uint64
}

const searchLimit = 50

func NewScanService(st *store.Store, reference ReferenceService, engine SyncEngine, online OnlineChecker,
	autoSyncEvery int, log logging.Logger) ScanService {
	return &scanService{
		store:         st,
		reference:     reference,
		engine:        engine,
		online:        online,
		log:           log.With("component", "scan"),
		now:           time.Now,
		autoSyncEvery: int64(autoSyncEvery),
	}
}

func (s *scanService) Capture(ctx context.Context, sess models.Session, in CaptureInput) (*CaptureResult, error) {
	if sess.Username() == "" {
		return nil, common.ErrNotLoggedIn
	}
	if sess.StocktakeID() == "" {
		return nil, common.ErrNoActiveSession
	}

	fields := models.ScanFields{
		Barcode:     strings.TrimSpace(in.Barcode),
		Quantity:    in.Quantity,
		Location:    sess.Location,
		User:        sess.Username(),
		StocktakeID: sess.StocktakeID(),
	}

	if err := s.resolveProduct(ctx, &fields, in.ProductName); err != nil {
		return nil, err
	}

	rec, err := models.NewScanRecord(fields, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.PutScan(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving scan: %w", err)
	}
	s.log.Debug(ctx, "scan captured", "sync_id", rec.SyncID, "barcode", rec.Barcode, "manual", rec.IsManualEntry)

	out := &CaptureResult{Record: rec}

	n := s.countCapture()
	if s.autoSyncEvery > 0 && n >= s.autoSyncEvery && s.online.IsOnline() {
		res, err := s.engine.Sync(ctx, sess)
		out.Sync, out.SyncErr = &res, err
	}
	return out, nil
}

// countCapture returns the number of captures since the last completed sync
// pass, whoever started it.
func (s *scanService) countCapture() int64 {
	if p := s.engine.Passes(); p != s.seenPass.Load() {
		s.seenPass.Store(p)
		s.captured.Store(0)
	}
	return s.captured.Add(1)
}

// resolveProduct fills name and stock snapshots from the product cache.
// Unknown or missing barcodes become manual entries.
func (s *scanService) resolveProduct(ctx context.Context, f *models.ScanFields, name string) error {
	name = strings.TrimSpace(name)
	if f.Barcode != "" {
		p, err := s.reference.Lookup(ctx, f.Barcode)
		switch {
		case err == nil:
			stock, value := p.Stock, p.Value
			f.ProductName = p.Name
			f.StockLevel = &stock
			f.Value = &value
			return nil
		case !errors.Is(err, common.ErrNotFound):
			return fmt.Errorf("product lookup: %w", err)
		}
	}

	f.IsManualEntry = true
	f.ProductName = name
	if f.ProductName == "" {
		f.ProductName = common.UnknownProductName
	}
	return nil
}

func (s *scanService) Edit(ctx context.Context, syncID string, quantity float64) (*models.ScanRecord, error) {
	if err := models.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	rec, err := s.store.UpdateScan(ctx, syncID, func(r models.ScanRecord) (models.ScanRecord, error) {
		return r.Edit(quantity, s.now())
	})
	if err != nil {
		return nil, fmt.Errorf("editing scan: %w", err)
	}
	return rec, nil
}

func (s *scanService) Delete(ctx context.Context, syncID string) error {
	_, err := s.store.UpdateScan(ctx, syncID, func(r models.ScanRecord) (models.ScanRecord, error) {
		return r.SoftDelete(s.now())
	})
	if err != nil {
		return fmt.Errorf("deleting scan: %w", err)
	}
	return nil
}

func (s *scanService) List(ctx context.Context, sess models.Session) ([]models.ScanRecord, error) {
	if sess.StocktakeID() == "" {
		return nil, common.ErrNoActiveSession
	}
	return s.store.ActiveScans(ctx, sess.StocktakeID())
}

func (s *scanService) Search(ctx context.Context, text string) ([]models.Product, error) {
	if strings.TrimSpace(text) == "" {
		return []models.Product{}, nil
	}
	return s.reference.Search(ctx, text, searchLimit)
}

func (s *scanService) Stats(ctx context.Context, sess models.Session) (Stats, error) {
	var st Stats
	if sess.StocktakeID() != "" {
		list, err := s.store.ActiveScans(ctx, sess.StocktakeID())
		if err != nil {
			return st, err
		}
		st.Total = len(list)
	}
	n, err := s.store.CountPending(ctx, "")
	if err != nil {
		return st, err
	}
	st.Unsynced = n
	return st, nil
}
