package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/stockcounter/internal/flagx"
)

var (
	valueFlags = []string{"-g", "-d", "-i", "-t", "-n", "-l"}
	boolFlags  = []string{"-v"}
)

// parseFlags overlays cfg with command-line flags. Intervals are whole
// seconds and only replace the current value when given. Flags not owned by this package are filtered out first.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	checkInterval := int(cfg.OnlineCheckInterval / time.Second)
	timeout := int(cfg.RequestTimeout / time.Second)

	fs.StringVar(&cfg.GatewayURL, "g", cfg.GatewayURL, "gateway base URL")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "local database path")
	fs.IntVar(&checkInterval, "i", checkInterval, "online check interval (seconds)")
	fs.IntVar(&timeout, "t", timeout, "request timeout (seconds)")
	fs.IntVar(&cfg.AutoSyncEvery, "n", cfg.AutoSyncEvery, "auto-sync after N captures")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file path")
	fs.BoolVar(&cfg.LogConsole, "v", cfg.LogConsole, "log to console")

	if err := fs.Parse(flagx.FilterArgs(args, valueFlags, boolFlags...)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.OnlineCheckInterval = time.Duration(checkInterval) * time.Second
		case "t":
			cfg.RequestTimeout = time.Duration(timeout) * time.Second
		}
	})
	return nil
}
