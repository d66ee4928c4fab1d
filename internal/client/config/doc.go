// Package config loads runtime configuration for the gophchat CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   backend base URL (default http://127.0.0.1:5000)
//	-m string   remote | local
//	-d string   local database file (default gophchat.db)
//	-t int      request timeout in seconds (0 = transport default)
//	-u          log out through /api/logout/:userId
//	-l string   log level
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "3s" or integer
// nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:5000",
//	  "mode": "remote",
//	  "request_timeout": "10s",
//	  "logout_with_user_id": true
//	}
package config
