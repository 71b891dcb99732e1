package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/stockcounter/internal/common"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds runtime settings for the stock counter CLI.
type Config struct {
	GatewayURL          string
	DBPath              string
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
	AutoSyncEvery       int
	LogFile             string
	LogConsole          bool
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.GatewayURL = "http://127.0.0.1:8787"
	c.DBPath = "stockcounter.db"
	c.OnlineCheckInterval = 5 * time.Second
	c.RequestTimeout = 30 * time.Second
	c.AutoSyncEvery = common.DefaultAutoSyncEvery
	c.LogFile = "stockcounter.log"
	c.LogConsole = false
}

// Validate reports settings the client cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.GatewayURL == "":
		return fmt.Errorf("%w: gateway url is empty", ErrInvalidConfig)
	case c.DBPath == "":
		return fmt.Errorf("%w: db path is empty", ErrInvalidConfig)
	case c.OnlineCheckInterval <= 0:
		return fmt.Errorf("%w: online check interval must be positive", ErrInvalidConfig)
	case c.RequestTimeout <= 0:
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalidConfig)
	case c.AutoSyncEvery < 0:
		return fmt.Errorf("%w: auto sync threshold must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig applies defaults, then the JSON file named by -c/-config (if
// any), then flags from args (usually os.Args[1:]).
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
