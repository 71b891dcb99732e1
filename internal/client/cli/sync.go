package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/stockcounter/internal/client/services"
)

func (a *App) Sync(ctx context.Context) error {
	sess, state := a.sessions.Current()
	if state == services.StateLoggedOut {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	if !a.isOnline() {
		stats, err := a.scans.Stats(ctx, sess)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Offline. %d scans are queued and will sync when the connection returns.\n", stats.Unsynced)
		return nil
	}

	res, err := a.engine.Sync(ctx, sess)
	a.reportSync(&res, err)
	return nil
}

func (a *App) Status(ctx context.Context) error {
	sess, state := a.sessions.Current()

	fmt.Fprintf(a.out, "State:     %s\n", state)
	fmt.Fprintf(a.out, "Mode:      %s\n", a.mode())
	if sess.User != nil {
		fmt.Fprintf(a.out, "User:      %s\n", sess.Username())
	}
	if sess.Stocktake != nil {
		fmt.Fprintf(a.out, "Stocktake: %s (%s)\n", sess.Stocktake.Name, sess.Stocktake.ID)
	}
	fmt.Fprintf(a.out, "Location:  %s\n", locationOrNone(sess.Location))

	stats, err := a.scans.Stats(ctx, sess)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Scans:     %d total, %d unsynced\n", stats.Total, stats.Unsynced)

	if last, ok := a.engine.Last(); ok {
		fmt.Fprintf(a.out, "Last sync: %s at %s\n", last.Status, last.Finished.Local().Format("15:04:05"))
	}
	return nil
}

func formatSync(res services.SyncResult) string {
	switch res.Status {
	case services.StatusNothingToSync:
		return "Nothing to sync."
	case services.StatusSkipped:
		return "Sync already in progress."
	case services.StatusSynced:
		return fmt.Sprintf("Synced: %d saved, %d deleted.", res.Upserted, res.Deleted)
	default:
		return fmt.Sprintf("Sync %s: %d saved, %d deleted, %d still pending.", res.Status, res.Upserted, res.Deleted, res.Pending)
	}
}
