package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/stockcounter/internal/client/models"
	"github.com/dmitrijs2005/stockcounter/internal/client/services"
	"github.com/dmitrijs2005/stockcounter/internal/common"
)

func (a *App) Stocktakes(ctx context.Context) error {
	list, err := a.sessions.ListStocktakes(ctx)
	if err != nil {
		return err
	}
	a.listed = list

	if len(list) == 0 {
		fmt.Fprintln(a.out, "No stocktakes yet. Create one with 'new <name>'.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tCREATED BY\tCREATED\tID")
	for i, st := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, st.Name, st.CreatedBy, formatDate(st.CreatedDate), st.ID)
	}
	return tw.Flush()
}

func (a *App) NewStocktake(ctx context.Context, args []string) error {
	name := strings.Join(args, " ")
	if name == "" {
		var err error
		if name, err = GetSimpleText(a.reader, "Stocktake name", a.out); err != nil {
			return err
		}
	}

	res, err := a.sessions.CreateStocktake(ctx, name)
	if err != nil {
		return err
	}
	a.listed = nil
	a.reportActivation(res)
	return nil
}

// Open selects a stocktake by its position in the last listing or by id.
func (a *App) Open(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: open <n|id>")
		return nil
	}
	if len(a.listed) == 0 {
		list, err := a.sessions.ListStocktakes(ctx)
		if err != nil {
			return err
		}
		a.listed = list
	}

	info, ok := a.pick(args[0])
	if !ok {
		return fmt.Errorf("stocktake %q: %w", args[0], common.ErrNotFound)
	}

	res, err := a.sessions.SelectStocktake(ctx, models.Stocktake{ID: info.ID, Name: info.Name})
	if err != nil {
		return err
	}
	a.reportActivation(res)
	return nil
}

func (a *App) pick(key string) (models.StocktakeInfo, bool) {
	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(a.listed) {
		return a.listed[n-1], true
	}
	for _, st := range a.listed {
		if st.ID == key {
			return st, true
		}
	}
	return models.StocktakeInfo{}, false
}

func (a *App) reportActivation(res services.ActivateResult) {
	fmt.Fprintf(a.out, "Stocktake %q is active. Location: %s.\n", res.Session.Stocktake.Name,
		locationOrNone(res.Session.Location))
	if res.RefreshErr != nil {
		fmt.Fprintln(a.out, "Warning:", res.RefreshErr)
	}
	fmt.Fprintf(a.out, "%d products, %d locations available", res.Reference.Products, len(res.Reference.Locations))
	if res.Reference.FromCache {
		fmt.Fprint(a.out, " (cached)")
	}
	fmt.Fprintln(a.out, ".")
	if res.Loaded > 0 {
		fmt.Fprintf(a.out, "Loaded %d previous scans.\n", res.Loaded)
	}
	if res.LoadErr != nil {
		fmt.Fprintln(a.out, "Warning:", res.LoadErr)
	}
}

func (a *App) Switch(ctx context.Context) error {
	if _, err := a.sessions.SwitchSession(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Stocktake closed. Use 'stocktakes' and 'open <n>' to pick another.")
	return nil
}

func (a *App) Locations(ctx context.Context) error {
	locs, err := a.reference.Locations(ctx)
	if err != nil {
		return err
	}
	if len(locs) == 0 {
		fmt.Fprintln(a.out, "No locations cached. Try 'refresh' when online.")
		return nil
	}

	sess, _ := a.sessions.Current()
	for _, l := range locs {
		marker := " "
		if l == sess.Location {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %s\n", marker, l)
	}
	return nil
}

func (a *App) SetLocation(ctx context.Context, args []string) error {
	name := strings.Join(args, " ")
	if name == "" {
		fmt.Fprintln(a.out, "Usage: location <name>")
		return nil
	}
	sess, err := a.sessions.SetLocation(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Location set to %s.\n", sess.Location)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	res, err := a.reference.Refresh(ctx)
	if err != nil {
		if !errors.Is(err, common.ErrReferenceLoad) {
			return err
		}
		fmt.Fprintln(a.out, "Warning:", err)
	}
	src := "downloaded"
	if res.FromCache {
		src = "cached"
	}
	fmt.Fprintf(a.out, "%d products, %d locations (%s).\n", res.Products, len(res.Locations), src)
	return nil
}
