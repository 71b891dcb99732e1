package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/stockcounter/internal/client/services"
)

func (a *App) Login(ctx context.Context) error {
	if a.state() != services.StateLoggedOut {
		fmt.Fprintln(a.out, "Already logged in. Use 'logout' first.")
		return nil
	}

	username, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}

	sess, err := a.sessions.Login(ctx, username, string(password))
	clear(password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s.\n", sess.Username())
	return a.Stocktakes(ctx)
}

// Logout asks for confirmation when unsynced scans would be left behind.
func (a *App) Logout(ctx context.Context) error {
	err := a.sessions.Logout(ctx, false)

	var pending *services.PendingChangesError
	if errors.As(err, &pending) {
		ok, cerr := Confirm(a.reader,
			fmt.Sprintf("%d scans are not synced yet. They stay on this device. Log out anyway?", pending.Pending), a.out)
		if cerr != nil {
			return cerr
		}
		if !ok {
			fmt.Fprintln(a.out, "Logout cancelled.")
			return nil
		}
		err = a.sessions.Logout(ctx, true)
	}
	if err != nil {
		return err
	}

	a.listed = nil
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
