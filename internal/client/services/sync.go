package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/stockcounter/internal/client/client"
	"github.com/dmitrijs2005/stockcounter/internal/client/models"
	"github.com/dmitrijs2005/stockcounter/internal/client/store"
	"github.com/dmitrijs2005/stockcounter/internal/common"
	"github.com/dmitrijs2005/stockcounter/internal/logging"
)

type SyncStatus string

const (
	StatusSynced        SyncStatus = "synced"
	StatusPartial       SyncStatus = "partial"
	StatusFailed        SyncStatus = "failed"
	StatusNothingToSync SyncStatus = "nothing to sync"
	StatusSkipped       SyncStatus = "skipped"
)

// SyncResult summarises one sync pass.
type SyncResult struct {
	Status   SyncStatus
	Upserted int
	Deleted  int
	// Pending is the number of unsynced records left after the pass.
	Pending  int
	Finished time.Time
}

// SyncEngine pushes pending local changes to the remote store.
//
// Contract:
//   - Sync runs at most one pass at a time per engine; a call made while a
//     pass is running returns StatusSkipped at once.
//   - Records are marked synced (or purged, for deletions) only when the
//     remote store acknowledges their syncId, and only at the revision that
//     was submitted.
//   - A failed batch leaves its records untouched; other batches still apply.
//   - StatusSynced means every submitted record was applied locally. The
//     returned error wraps common.ErrSyncFailed when nothing could be
//     acknowledged and common.ErrPartialSync when only some records were
//     applied, or the remote store confirmed a batch by count only.
type SyncEngine interface {
	Sync(ctx context.Context, sess models.Session) (SyncResult, error)
	// Last returns the result of the most recent completed pass.
	Last() (SyncResult, bool)
	// Passes counts completed passes, skipped calls excluded.
	Passes() uint64
}

type syncEngine struct {
	gateway client.Gateway
	store   *store.Store
	log     logging.Logger
	now     func() time.Time

	running atomic.Bool
	passes  atomic.Uint64

	mu      sync.Mutex
	last    SyncResult
	hasLast bool
}

func NewSyncEngine(gateway client.Gateway, st *store.Store, log logging.Logger) SyncEngine {
	return &syncEngine{gateway: gateway, store: st, log: log.With("component", "sync"), now: time.Now}
}

func (e *syncEngine) Passes() uint64 { return e.passes.Load() }

func (e *syncEngine) Last() (SyncResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last, e.hasLast
}

// batch is the set of records of one stocktake submitted in one call.
type batch struct {
	stocktakeID string
	records     []models.ScanRecord
}

func (e *syncEngine) Sync(ctx context.Context, sess models.Session) (SyncResult, error) {
	if !e.running.CompareAndSwap(false, true) {
		e.log.Debug(ctx, "sync already running, skipping")
		return SyncResult{Status: StatusSkipped}, nil
	}
	defer e.running.Store(false)

	res, err := e.pass(ctx, sess)
	res.Finished = e.now()

	if res.Status != StatusSkipped {
		e.mu.Lock()
		e.last, e.hasLast = res, true
		e.mu.Unlock()
		e.passes.Add(1)
	}
	return res, err
}

func (e *syncEngine) pass(ctx context.Context, sess models.Session) (SyncResult, error) {
	pending, err := e.store.PendingScans(ctx)
	if err != nil {
		return SyncResult{Status: StatusFailed}, fmt.Errorf("%w: %w", common.ErrSyncFailed, err)
	}

	var upserts, deletes []models.ScanRecord
	for _, r := range pending {
		if r.Deleted {
			deletes = append(deletes, r)
		} else {
			upserts = append(upserts, r)
		}
	}

	if len(upserts) == 0 && len(deletes) == 0 {
		return SyncResult{Status: StatusNothingToSync}, nil
	}

	var (
		res         SyncResult
		failures    []error
		submitted   int
		acked       int
		unconfirmed bool
	)

	record := func(sent, got int, err error) {
		submitted += sent
		acked += got
		if err != nil {
			failures = append(failures, err)
			unconfirmed = unconfirmed || errors.Is(err, client.ErrUnconfirmed)
		}
	}

	for _, b := range e.group(upserts, sess) {
		n, got, err := e.pushUpserts(ctx, b)
		res.Upserted += n
		record(len(b.records), got, err)
	}

	for _, b := range e.group(deletes, sess) {
		n, got, err := e.pushDeletes(ctx, b)
		res.Deleted += n
		record(len(b.records), got, err)
	}

	res.Pending, err = e.store.CountPending(ctx, "")
	if err != nil {
		e.log.Warn(ctx, "failed to count pending scans", "error", err)
	}

	// acknowledged records edited during the pass stay pending and make the
	// pass partial
	applied := res.Upserted + res.Deleted
	switch {
	case len(failures) == 0 && applied == submitted:
		res.Status = StatusSynced
		e.log.Info(ctx, "sync finished", "upserted", res.Upserted, "deleted", res.Deleted, "pending", res.Pending)
		return res, nil
	case acked > 0 || unconfirmed:
		res.Status = StatusPartial
		err = fmt.Errorf("%w: %d of %d applied", common.ErrPartialSync, applied, submitted)
		if len(failures) > 0 {
			err = fmt.Errorf("%w: %w", err, errors.Join(failures...))
		}
	default:
		res.Status = StatusFailed
		if len(failures) == 0 {
			failures = append(failures, errors.New("no records acknowledged"))
		}
		err = fmt.Errorf("%w: %w", common.ErrSyncFailed, errors.Join(failures...))
	}

	e.log.Warn(ctx, "sync incomplete",
		"status", string(res.Status), "upserted", res.Upserted, "deleted", res.Deleted,
		"pending", res.Pending, "error", err)
	return res, err
}

// group splits records by stocktake, keeping first-seen order. Records
// without a stocktake belong to the active one.
func (e *syncEngine) group(recs []models.ScanRecord, sess models.Session) []batch {
	var out []batch
	idx := map[string]int{}
	for _, r := range recs {
		key := r.StocktakeID
		if key == "" {
			key = sess.StocktakeID()
		}
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, batch{stocktakeID: key})
		}
		out[i].records = append(out[i].records, r)
	}
	return out
}

// pushUpserts returns the rows marked synced, the number of ids the remote
// store acknowledged, and the batch error if any.
func (e *syncEngine) pushUpserts(ctx context.Context, b batch) (int, int, error) {
	if b.stocktakeID == "" {
		return 0, 0, fmt.Errorf("%d scans: %w", len(b.records), common.ErrNoActiveSession)
	}

	ids, err := e.gateway.UpsertBatch(ctx, b.stocktakeID, b.records)
	if err != nil {
		return 0, 0, batchError("upsert", b, err)
	}

	acks := matchAcks(b.records, ids)
	n, err := e.store.MarkSynced(ctx, acks)
	if err != nil {
		return 0, len(acks), fmt.Errorf("failed to mark scans synced: %w", err)
	}
	e.log.Debug(ctx, "upsert batch applied",
		"stocktake", b.stocktakeID, "sent", len(b.records), "acked", len(acks), "marked", n)
	return n, len(acks), nil
}

func (e *syncEngine) pushDeletes(ctx context.Context, b batch) (int, int, error) {
	if b.stocktakeID == "" {
		return 0, 0, fmt.Errorf("%d deletions: %w", len(b.records), common.ErrNoActiveSession)
	}

	ids := make([]string, 0, len(b.records))
	for _, r := range b.records {
		ids = append(ids, r.SyncID)
	}

	confirmed, err := e.gateway.DeleteBatch(ctx, b.stocktakeID, ids)
	if err != nil {
		return 0, 0, batchError("delete", b, err)
	}

	acks := matchAcks(b.records, confirmed)
	n, err := e.store.PurgeDeleted(ctx, acks)
	if err != nil {
		return 0, len(acks), fmt.Errorf("failed to purge deleted scans: %w", err)
	}
	e.log.Debug(ctx, "delete batch applied",
		"stocktake", b.stocktakeID, "sent", len(b.records), "acked", len(acks), "purged", n)
	return n, len(acks), nil
}

// matchAcks pairs acknowledged ids with the revision that was submitted.
// Ids that were not part of the batch are ignored.
func matchAcks(recs []models.ScanRecord, ids []string) []store.Ack {
	rev := make(map[string]int64, len(recs))
	for _, r := range recs {
		rev[r.SyncID] = r.Revision
	}
	acks := make([]store.Ack, 0, len(ids))
	for _, id := range ids {
		if v, ok := rev[id]; ok {
			acks = append(acks, store.Ack{SyncID: id, Revision: v})
			delete(rev, id)
		}
	}
	return acks
}

func batchError(op string, b batch, err error) error {
	if errors.Is(err, client.ErrUnavailable) {
		err = fmt.Errorf("%w: %w", common.ErrNetworkFailure, err)
	}
	return fmt.Errorf("%s batch for stocktake %s: %w", op, b.stocktakeID, err)
}
