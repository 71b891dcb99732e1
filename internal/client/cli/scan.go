package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/stockcounter/internal/client/models"
	"github.com/dmitrijs2005/stockcounter/internal/client/services"
	"github.com/dmitrijs2005/stockcounter/internal/common"
)

// Scan records a count for a barcode. Unknown barcodes fall through to a
// manual entry with a user-supplied name.
func (a *App) Scan(ctx context.Context, args []string) error {
	sess, err := a.activeSession()
	if err != nil {
		return err
	}

	var barcode string
	if len(args) > 0 {
		barcode = args[0]
	} else if barcode, err = GetSimpleText(a.reader, "Barcode", a.out); err != nil {
		return err
	}
	if barcode == "" {
		fmt.Fprintln(a.out, "Usage: scan <barcode>")
		return nil
	}

	in := services.CaptureInput{Barcode: barcode}

	p, err := a.reference.Lookup(ctx, barcode)
	switch {
	case err == nil:
		fmt.Fprintf(a.out, "%s (stock %s)\n", p.Name, formatQty(p.Stock))
	case errors.Is(err, common.ErrNotFound):
		name, err := GetSimpleText(a.reader, "Product not found. Enter product name (empty to count as unknown)", a.out)
		if err != nil {
			return err
		}
		in.ProductName = name
	default:
		return err
	}

	if in.Quantity, err = GetQuantity(a.reader, "Quantity", a.out); err != nil {
		return err
	}
	return a.capture(ctx, sess, in)
}

// Manual records a count for a product typed in by hand.
func (a *App) Manual(ctx context.Context) error {
	sess, err := a.activeSession()
	if err != nil {
		return err
	}

	var in services.CaptureInput
	if in.Barcode, err = GetSimpleText(a.reader, "Barcode (optional)", a.out); err != nil {
		return err
	}
	if in.ProductName, err = GetSimpleText(a.reader, "Product name", a.out); err != nil {
		return err
	}
	if in.Quantity, err = GetQuantity(a.reader, "Quantity", a.out); err != nil {
		return err
	}
	return a.capture(ctx, sess, in)
}

func (a *App) capture(ctx context.Context, sess models.Session, in services.CaptureInput) error {
	res, err := a.scans.Capture(ctx, sess, in)
	if err != nil {
		return err
	}
	rec := res.Record
	fmt.Fprintf(a.out, "Saved %s x %s at %s [%s]\n", formatQty(rec.Quantity), rec.ProductName,
		locationOrNone(rec.Location), rec.SyncID)
	if res.Sync != nil || res.SyncErr != nil {
		a.reportSync(res.Sync, res.SyncErr)
	}
	return nil
}

func (a *App) Search(ctx context.Context, args []string) error {
	text := strings.Join(args, " ")
	if text == "" {
		fmt.Fprintln(a.out, "Usage: search <text>")
		return nil
	}
	found, err := a.scans.Search(ctx, text)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Fprintln(a.out, "No products found.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BARCODE\tNAME\tSTOCK")
	for _, p := range found {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Barcode, p.Name, formatQty(p.Stock))
	}
	return tw.Flush()
}

// List prints the active scans of the current stocktake, newest first.
func (a *App) List(ctx context.Context) error {
	sess, err := a.activeSession()
	if err != nil {
		return err
	}
	recs, err := a.scans.List(ctx, sess)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(a.out, "No scans yet.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tBARCODE\tPRODUCT\tQTY\tLOCATION\tSTATE\tSYNC ID")
	for _, r := range recs {
		state := "synced"
		if !r.Synced {
			state = "pending"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", r.Timestamp.Local().Format("01-02 15:04"), r.Barcode,
			r.ProductName, formatQty(r.Quantity), r.Location, state, r.SyncID)
	}
	return tw.Flush()
}

func (a *App) Edit(ctx context.Context, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(a.out, "Usage: edit <syncId> <qty>")
		return nil
	}
	qty, err := models.ParseQuantity(strings.Replace(args[1], ",", ".", 1))
	if err != nil {
		return err
	}
	rec, err := a.scans.Edit(ctx, args[0], qty)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s to %s.\n", rec.ProductName, formatQty(rec.Quantity))
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: delete <syncId>")
		return nil
	}
	ok, err := Confirm(a.reader, fmt.Sprintf("Delete scan %s?", args[0]), a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Delete cancelled.")
		return nil
	}
	if err := a.scans.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Scan deleted.")
	return nil
}

func (a *App) activeSession() (models.Session, error) {
	sess, state := a.sessions.Current()
	switch state {
	case services.StateLoggedOut:
		return sess, common.ErrNotLoggedIn
	case services.StateAwaitingSelection:
		return sess, common.ErrNoActiveSession
	}
	return sess, nil
}

func formatQty(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}
