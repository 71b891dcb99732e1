package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/stockcounter/internal/client/services"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	state() services.State
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Stocktakes(ctx context.Context) error
	NewStocktake(ctx context.Context, args []string) error
	Open(ctx context.Context, args []string) error
	Switch(ctx context.Context) error
	Locations(ctx context.Context) error
	SetLocation(ctx context.Context, args []string) error
	Scan(ctx context.Context, args []string) error
	Manual(ctx context.Context) error
	Search(ctx context.Context, args []string) error
	List(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
	Refresh(ctx context.Context) error
	Status(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: login, status, exit"
	helpSelecting = "Available commands: stocktakes, new <name>, open <n|id>, locations, location <name>, " +
		"sync, status, logout, exit"
	helpActive = "Available commands: scan <barcode>, manual, search <text>, (l)ist, edit <syncId> <qty>, " +
		"delete <syncId>, sync, refresh, locations, location <name>, switch, stocktakes, open <n|id>, " +
		"new <name>, status, logout, exit"
)

// runREPL reads one command per line from reader and dispatches it to a.
// The prompt shows the current status (from statusFn). The loop exits on
// EOF or when the user types "exit" or "quit". Handler errors are printed
// and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("sc %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			switch a.state() {
			case services.StateActive:
				printlnFn(helpActive)
			case services.StateAwaitingSelection:
				printlnFn(helpSelecting)
			default:
				printlnFn(helpLoggedOut)
			}

		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "stocktakes":
			cmdErr = a.Stocktakes(ctx)
		case "new":
			cmdErr = a.NewStocktake(ctx, args)
		case "open":
			cmdErr = a.Open(ctx, args)
		case "switch":
			cmdErr = a.Switch(ctx)
		case "locations":
			cmdErr = a.Locations(ctx)
		case "location":
			cmdErr = a.SetLocation(ctx, args)
		case "scan", "s":
			cmdErr = a.Scan(ctx, args)
		case "manual":
			cmdErr = a.Manual(ctx)
		case "search":
			cmdErr = a.Search(ctx, args)
		case "list", "l":
			cmdErr = a.List(ctx)
		case "edit":
			cmdErr = a.Edit(ctx, args)
		case "delete":
			cmdErr = a.Delete(ctx, args)
		case "sync":
			cmdErr = a.Sync(ctx)
		case "refresh":
			cmdErr = a.Refresh(ctx)
		case "status":
			cmdErr = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
		if err != nil {
			return
		}
	}
}
