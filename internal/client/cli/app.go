package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/stockcounter/internal/client/client"
	"github.com/dmitrijs2005/stockcounter/internal/client/config"
	"github.com/dmitrijs2005/stockcounter/internal/client/connectivity"
	"github.com/dmitrijs2005/stockcounter/internal/client/models"
	"github.com/dmitrijs2005/stockcounter/internal/client/services"
	"github.com/dmitrijs2005/stockcounter/internal/client/store"
	"github.com/dmitrijs2005/stockcounter/internal/logging"
)

type App struct {
	config  *config.Config
	store   *store.Store
	gateway client.Gateway
	monitor *connectivity.Monitor
	online  services.OnlineChecker

	sessions  services.SessionService
	scans     services.ScanService
	reference services.ReferenceService
	engine    services.SyncEngine

	log    logging.Logger
	reader *bufio.Reader
	out    io.Writer

	// listed is the last stocktake listing, for "open <n>".
	listed []models.StocktakeInfo
}

// NewApp builds the object graph. Nothing touches the disk or the network
// until Run.
func NewApp(c *config.Config, log logging.Logger) *App {
	gw := client.NewHTTPGateway(c.GatewayURL, client.WithTimeout(c.RequestTimeout))
	st := store.New(c.DBPath, log)
	mon := connectivity.NewMonitor(gw, c.OnlineCheckInterval, log)

	a := newApp(st, gw, mon, log, bufio.NewReader(os.Stdin), os.Stdout, c.AutoSyncEvery)
	a.config = c
	a.monitor = mon
	return a
}

func newApp(st *store.Store, gw client.Gateway, online services.OnlineChecker, log logging.Logger,
	reader *bufio.Reader, out io.Writer, autoSyncEvery int) *App {
	ref := services.NewReferenceService(gw, st, log)
	engine := services.NewSyncEngine(gw, st, log)

	return &App{
		store:     st,
		gateway:   gw,
		online:    online,
		reference: ref,
		engine:    engine,
		scans:     services.NewScanService(st, ref, engine, online, autoSyncEvery, log),
		sessions:  services.NewSessionService(gw, st, ref, engine, online, log),
		log:       log.With("component", "cli"),
		reader:    reader,
		out:       out,
	}
}

// Run opens the store, restores the previous session, starts the
// connectivity monitor and blocks in the REPL until exit.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	if err := a.store.Init(ctx); err != nil {
		return err
	}

	a.monitor.OnOnline(a.syncOnReconnect)
	a.monitor.Check(ctx)

	if err := a.restore(ctx); err != nil {
		return err
	}

	stop := a.monitor.Start(ctx)
	defer stop()

	fmt.Fprintln(a.out, "Stock counter (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

func (a *App) Close() {
	if err := a.gateway.Close(); err != nil {
		a.log.Warn(context.Background(), "failed to close gateway", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn(context.Background(), "failed to close store", "error", err)
	}
}

func (a *App) restore(ctx context.Context) error {
	res, err := a.sessions.Restore(ctx)
	if err != nil {
		return err
	}

	switch res.State {
	case services.StateLoggedOut:
		fmt.Fprintln(a.out, "Not logged in. Type 'login' to start.")
	case services.StateAwaitingSelection:
		fmt.Fprintf(a.out, "Welcome back, %s. Choose a stocktake ('stocktakes', 'open <n>') or create one ('new <name>').\n",
			res.Session.Username())
	case services.StateActive:
		fmt.Fprintf(a.out, "Resumed stocktake %q at %s.\n", res.Session.Stocktake.Name, locationOrNone(res.Session.Location))
	}
	a.reportSync(res.Sync, res.SyncErr)
	return nil
}

// syncOnReconnect runs on every offline → online edge.
func (a *App) syncOnReconnect(ctx context.Context) {
	res, err := a.sessions.SyncIfPending(ctx)
	if res == nil && err == nil {
		return
	}
	if err != nil {
		a.log.Warn(ctx, "sync after reconnect failed", "error", err)
	}
	a.reportSync(res, err)
}

func (a *App) isOnline() bool {
	return a.online.IsOnline()
}

func (a *App) state() services.State {
	_, st := a.sessions.Current()
	return st
}

// getStatus renders the prompt status, e.g. "(anna @ Main / Bar | online | 3 unsynced)".
func (a *App) getStatus() string {
	sess, state := a.sessions.Current()
	if state == services.StateLoggedOut {
		return fmt.Sprintf("(%s)", a.mode())
	}

	s := sess.Username()
	if sess.Stocktake != nil {
		s += " @ " + sess.Stocktake.Name
		if sess.Location != "" {
			s += " / " + sess.Location
		}
	}
	s += " | " + a.mode()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if stats, err := a.scans.Stats(ctx, sess); err == nil && stats.Unsynced > 0 {
		s += fmt.Sprintf(" | %d unsynced", stats.Unsynced)
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) mode() string {
	if a.isOnline() {
		return "online"
	}
	return "offline"
}

func (a *App) reportSync(res *services.SyncResult, err error) {
	if res != nil {
		fmt.Fprintln(a.out, formatSync(*res))
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(a.out, "Sync problem:", err)
	}
}

func locationOrNone(loc string) string {
	if loc == "" {
		return "no location"
	}
	return loc
}
