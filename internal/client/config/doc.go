// Package config loads runtime configuration for the stock counter CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-g string   base URL of the remote gateway
//	-d string   path to the local SQLite database
//	-i int      online status check interval (seconds)
//	-t int      gateway request timeout (seconds)
//	-n int      auto-sync after every N captures (0 disables)
//	-l string   log file path (empty disables file logging)
//	-v          also log to the console
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds. Keys missing from the file keep their defaults:
//
//	{
//	  "gateway_url": "http://127.0.0.1:8787",
//	  "db_path": "stockcounter.db",
//	  "online_check_interval": "5s",
//	  "request_timeout": "30s",
//	  "auto_sync_every": 10,
//	  "log_file": "stockcounter.log",
//	  "log_console": false
//	}
package config
