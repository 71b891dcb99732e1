package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/stockcounter/internal/buildinfo"
	"github.com/dmitrijs2005/stockcounter/internal/client/cli"
	"github.com/dmitrijs2005/stockcounter/internal/client/config"
	"github.com/dmitrijs2005/stockcounter/internal/filex"
	"github.com/dmitrijs2005/stockcounter/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	for _, path := range []string{cfg.DBPath, cfg.LogFile} {
		if path == "" {
			continue
		}
		if _, err := filex.EnsureParentDir(path); err != nil {
			log.Fatalf("%v", err)
		}
	}

	logger, closer, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer closer.Close()

	app := cli.NewApp(cfg, logger)
	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "client stopped", "error", err)
		log.Printf("%v", err)
		closer.Close()
		os.Exit(1)
	}
}

// newLogger logs JSON to the configured file, mirrored to stderr with -v.
// Without a log file, -v logs text to stderr and everything else is dropped.
func newLogger(cfg *config.Config) (logging.Logger, io.Closer, error) {
	var console io.Writer
	if cfg.LogConsole {
		console = os.Stderr
	}

	if cfg.LogFile != "" {
		l, c, err := logging.NewFileLogger(cfg.LogFile, console)
		if err != nil {
			return nil, nil, err
		}
		return l, c, nil
	}

	if console != nil {
		return logging.NewTextLogger(console, slog.LevelInfo), io.NopCloser(nil), nil
	}
	return logging.Nop(), io.NopCloser(nil), nil
}
