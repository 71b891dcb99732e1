package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/stockcounter/internal/client/client"
	"github.com/dmitrijs2005/stockcounter/internal/client/models"
	"github.com/dmitrijs2005/stockcounter/internal/client/store"
	"github.com/dmitrijs2005/stockcounter/internal/common"
	"github.com/dmitrijs2005/stockcounter/internal/logging"
)

// State is the position of the client in the session lifecycle.
type State int

const (
	StateLoggedOut State = iota
	StateAwaitingSelection
	StateActive
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged out"
	case StateAwaitingSelection:
		return "awaiting stocktake selection"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PendingChangesError is returned by Logout when unsynced scans exist and
// the caller has not confirmed. It matches common.ErrConfirmationRequired.
type PendingChangesError struct {
	Pending int
}

func (e *PendingChangesError) Error() string {
	return fmt.Sprintf("%d unsynced scans: %s", e.Pending, common.ErrConfirmationRequired)
}

func (e *PendingChangesError) Unwrap() error { return common.ErrConfirmationRequired }

// ActivateResult reports what happened while entering a stocktake.
// Reference and history problems do not prevent activation.
type ActivateResult struct {
	Session    models.Session
	Reference  RefreshResult
	RefreshErr error
	// Loaded is the number of previous scans merged from the remote store.
	Loaded  int
	LoadErr error
}

// RestoreResult is the outcome of reading persisted state at start-up.
type RestoreResult struct {
	Session models.Session
	State   State
	Sync    *SyncResult
	SyncErr error
}

// SessionService drives the LoggedOut → AwaitingSelection → Active state
// machine and persists every selection in its own state slot.
type SessionService interface {
	Restore(ctx context.Context) (RestoreResult, error)
	Current() (models.Session, State)
	Login(ctx context.Context, username, password string) (models.Session, error)
	ListStocktakes(ctx context.Context) ([]models.StocktakeInfo, error)
	CreateStocktake(ctx context.Context, name string) (ActivateResult, error)
	SelectStocktake(ctx context.Context, st models.Stocktake) (ActivateResult, error)
	SwitchSession(ctx context.Context) (models.Session, error)
	SetLocation(ctx context.Context, name string) (models.Session, error)
	Logout(ctx context.Context, confirm bool) error
	// SyncIfPending runs one sync pass when a stocktake is active, the
	// client is online and unsynced scans exist. It returns nil otherwise.
	SyncIfPending(ctx context.Context) (*SyncResult, error)
}

type sessionService struct {
	gateway   client.Gateway
	store     *store.Store
	reference ReferenceService
	engine    SyncEngine
	online    OnlineChecker
	log       logging.Logger

	mu    sync.RWMutex
	sess  models.Session
	state State
}

func NewSessionService(gateway client.Gateway, st *store.Store, reference ReferenceService, engine SyncEngine,
	online OnlineChecker, log logging.Logger) SessionService {
	return &sessionService{
		gateway:   gateway,
		store:     st,
		reference: reference,
		engine:    engine,
		online:    online,
		log:       log.With("component", "session"),
	}
}

func (s *sessionService) Current() (models.Session, State) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess, s.state
}

func (s *sessionService) set(sess models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = sess
	switch {
	case sess.User == nil:
		s.state = StateLoggedOut
	case sess.Stocktake == nil:
		s.state = StateAwaitingSelection
	default:
		s.state = StateActive
	}
}

func (s *sessionService) Restore(ctx context.Context) (RestoreResult, error) {
	var (
		sess models.Session
		user models.User
		st   models.Stocktake
		loc  string
	)

	ok, err := s.store.LoadState(ctx, common.StateKeyUser, &user)
	if err != nil {
		return RestoreResult{}, fmt.Errorf("restoring user: %w", err)
	}
	if ok && user.Username != "" {
		sess.User = &user

		ok, err = s.store.LoadState(ctx, common.StateKeyCurrentSession, &st)
		if err != nil {
			return RestoreResult{}, fmt.Errorf("restoring stocktake: %w", err)
		}
		if ok && st.ID != "" {
			sess.Stocktake = &st
		}

		if _, err = s.store.LoadState(ctx, common.StateKeyCurrentLocation, &loc); err != nil {
			return RestoreResult{}, fmt.Errorf("restoring location: %w", err)
		}
		sess.Location = loc
	}

	s.set(sess)
	_, state := s.Current()
	s.log.Info(ctx, "session restored", "state", state.String(), "user", sess.Username(), "stocktake", sess.StocktakeID())

	res := RestoreResult{Session: sess, State: state}
	res.Sync, res.SyncErr = s.SyncIfPending(ctx)
	return res, nil
}

func (s *sessionService) SyncIfPending(ctx context.Context) (*SyncResult, error) {
	sess, state := s.Current()
	if state != StateActive || !s.online.IsOnline() {
		return nil, nil
	}
	n, err := s.store.CountPending(ctx, "")
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	res, err := s.engine.Sync(ctx, sess)
	return &res, err
}

func (s *sessionService) Login(ctx context.Context, username, password string) (models.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.Session{}, fmt.Errorf("%w: empty username", client.ErrRejected)
	}

	if err := s.gateway.Authenticate(ctx, username, password); err != nil {
		return models.Session{}, fmt.Errorf("login: %w", err)
	}

	user := &models.User{Username: username}
	if err := s.store.SaveState(ctx, common.StateKeyUser, user); err != nil {
		return models.Session{}, err
	}
	if err := s.store.ClearState(ctx, common.StateKeyCurrentSession); err != nil {
		return models.Session{}, err
	}

	sess := models.Session{User: user}
	if _, err := s.store.LoadState(ctx, common.StateKeyCurrentLocation, &sess.Location); err != nil {
		return models.Session{}, err
	}
	s.set(sess)
	s.log.Info(ctx, "logged in", "user", username)
	return sess, nil
}

func (s *sessionService) ListStocktakes(ctx context.Context) ([]models.StocktakeInfo, error) {
	if sess, _ := s.Current(); sess.User == nil {
		return nil, common.ErrNotLoggedIn
	}
	return s.gateway.ListSessions(ctx)
}

func (s *sessionService) CreateStocktake(ctx context.Context, name string) (ActivateResult, error) {
	sess, _ := s.Current()
	if sess.User == nil {
		return ActivateResult{}, common.ErrNotLoggedIn
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ActivateResult{}, fmt.Errorf("%w: empty stocktake name", client.ErrRejected)
	}

	st, err := s.gateway.CreateSession(ctx, name, sess.Username())
	if err != nil {
		return ActivateResult{}, fmt.Errorf("creating stocktake: %w", err)
	}
	return s.activate(ctx, sess, *st, false)
}

func (s *sessionService) SelectStocktake(ctx context.Context, st models.Stocktake) (ActivateResult, error) {
	sess, _ := s.Current()
	if sess.User == nil {
		return ActivateResult{}, common.ErrNotLoggedIn
	}
	if st.ID == "" {
		return ActivateResult{}, fmt.Errorf("stocktake: %w", common.ErrNotFound)
	}
	return s.activate(ctx, sess, st, true)
}

// activate persists the stocktake, refreshes reference data, defaults the
// location and, for existing stocktakes, merges the user's previous scans.
func (s *sessionService) activate(ctx context.Context, sess models.Session, st models.Stocktake, loadHistory bool) (ActivateResult, error) {
	sess.Stocktake = &st

	var res ActivateResult
	res.Reference, res.RefreshErr = s.reference.Refresh(ctx)
	if res.RefreshErr != nil && !errors.Is(res.RefreshErr, common.ErrReferenceLoad) {
		return ActivateResult{}, res.RefreshErr
	}

	if sess.Location == "" && len(res.Reference.Locations) > 0 {
		sess.Location = res.Reference.Locations[0]
		if err := s.store.SaveState(ctx, common.StateKeyCurrentLocation, sess.Location); err != nil {
			return ActivateResult{}, err
		}
	}

	if err := s.store.SaveState(ctx, common.StateKeyCurrentSession, &st); err != nil {
		return ActivateResult{}, err
	}

	if loadHistory {
		res.Loaded, res.LoadErr = s.loadHistory(ctx, sess)
	}

	s.set(sess)
	res.Session = sess
	s.log.Info(ctx, "stocktake active", "stocktake", st.ID, "name", st.Name, "location", sess.Location,
		"loaded", res.Loaded, "reference_from_cache", res.Reference.FromCache)
	return res, nil
}

func (s *sessionService) loadHistory(ctx context.Context, sess models.Session) (int, error) {
	recs, err := s.gateway.FetchUserRecords(ctx, sess.StocktakeID(), sess.Username())
	if err != nil {
		s.log.Warn(ctx, "failed to load previous scans", "error", err)
		return 0, fmt.Errorf("loading previous scans: %w", err)
	}
	for i := range recs {
		recs[i].Synced = true
		recs[i].Deleted = false
		recs[i].Origin = models.OriginServer
		if recs[i].StocktakeID == "" {
			recs[i].StocktakeID = sess.StocktakeID()
		}
		if recs[i].Revision == 0 {
			recs[i].Revision = 1
		}
	}
	return s.store.MergeRemote(ctx, recs)
}

func (s *sessionService) SwitchSession(ctx context.Context) (models.Session, error) {
	sess, state := s.Current()
	if state == StateLoggedOut {
		return sess, common.ErrNotLoggedIn
	}
	if err := s.store.ClearState(ctx, common.StateKeyCurrentSession); err != nil {
		return sess, err
	}
	sess.Stocktake = nil
	s.set(sess)
	return sess, nil
}

func (s *sessionService) SetLocation(ctx context.Context, name string) (models.Session, error) {
	sess, _ := s.Current()
	if sess.User == nil {
		return sess, common.ErrNotLoggedIn
	}
	name = strings.TrimSpace(name)

	// with an empty cache any name is accepted
	found, err := s.store.HasLocation(ctx, name)
	if err != nil {
		return sess, err
	}
	if !found {
		known, err := s.reference.Locations(ctx)
		if err != nil {
			return sess, err
		}
		if len(known) > 0 {
			return sess, fmt.Errorf("location %q: %w", name, common.ErrNotFound)
		}
	}

	if err := s.store.SaveState(ctx, common.StateKeyCurrentLocation, name); err != nil {
		return sess, err
	}
	sess.Location = name
	s.set(sess)
	return sess, nil
}

// Logout clears the user, stocktake and location slots. Scan data is kept.
func (s *sessionService) Logout(ctx context.Context, confirm bool) error {
	n, err := s.store.CountPending(ctx, "")
	if err != nil {
		return err
	}
	if n > 0 && !confirm {
		return &PendingChangesError{Pending: n}
	}

	err = s.store.ClearState(ctx, common.StateKeyUser, common.StateKeyCurrentSession, common.StateKeyCurrentLocation)
	if err != nil {
		return err
	}
	s.set(models.Session{})
	s.log.Info(ctx, "logged out", "unsynced_kept", n)
	return nil
}
