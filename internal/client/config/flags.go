package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   backend base URL
//	-m string   backend mode: remote or local
//	-d string   local SQLite file (local mode)
//	-t int      request timeout in seconds, 0 = transport default
//	-u          log out through /api/logout/:userId
//	-l string   log level
//
// os.Args is filtered with flagx.FilterArgs so -c/-config is not seen here.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-m", "-d", "-t", "-u", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "backend base URL")
	fs.StringVar(&cfg.Mode, "m", cfg.Mode, "backend mode: remote or local")
	fs.StringVar(&cfg.LocalDBPath, "d", cfg.LocalDBPath, "local database file")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.BoolVar(&cfg.LogoutWithUserID, "u", cfg.LogoutWithUserID, "log out through the per-user endpoint")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second

	if cfg.Mode != ModeRemote && cfg.Mode != ModeLocal {
		panic(fmt.Sprintf("unknown mode %q (want %s or %s)", cfg.Mode, ModeRemote, ModeLocal))
	}
}
