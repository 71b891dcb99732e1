package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/stockcounter/internal/flagx"
	"github.com/dmitrijs2005/stockcounter/internal/timex"
)

// JsonConfig is the on-disk shape. Pointer fields tell "absent" apart from
// zero values so missing keys keep their defaults.
type JsonConfig struct {
	GatewayURL          *string         `json:"gateway_url"`
	DBPath              *string         `json:"db_path"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	AutoSyncEvery       *int            `json:"auto_sync_every"`
	LogFile             *string         `json:"log_file"`
	LogConsole          *bool           `json:"log_console"`
}

// parseJson overlays cfg with the file named by -c/-config. No flag, no-op.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	jc.apply(cfg)
	return nil
}

func (jc *JsonConfig) apply(cfg *Config) {
	if jc.GatewayURL != nil {
		cfg.GatewayURL = *jc.GatewayURL
	}
	if jc.DBPath != nil {
		cfg.DBPath = *jc.DBPath
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.AutoSyncEvery != nil {
		cfg.AutoSyncEvery = *jc.AutoSyncEvery
	}
	if jc.LogFile != nil {
		cfg.LogFile = *jc.LogFile
	}
	if jc.LogConsole != nil {
		cfg.LogConsole = *jc.LogConsole
	}
}
