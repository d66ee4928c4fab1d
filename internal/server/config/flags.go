package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5000")
//	-d string   PostgreSQL DSN
//	-s string   session token HMAC secret key
//	-t int      session lifetime, minutes
//	-n string   session cookie name
//	-k          mark the session cookie Secure
//	-o string   OpenAI API key (empty = echo bot)
//	-b string   OpenAI-compatible base URL
//	-g string   OpenAI model
//	-r int      login attempts per minute per client IP
//	-x int      login burst per client IP
//	-l string   log level
//
// os.Args is filtered with flagx.FilterArgs so -c/-config is not seen here.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-n", "-k", "-o", "-b", "-g", "-r", "-x", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	sessionLifetime := fs.Int("t", int(config.SessionLifetime.Minutes()), "session lifetime (in minutes)")
	fs.StringVar(&config.CookieName, "n", config.CookieName, "session cookie name")
	fs.BoolVar(&config.CookieSecure, "k", config.CookieSecure, "secure session cookie")
	fs.StringVar(&config.OpenAIAPIKey, "o", config.OpenAIAPIKey, "OpenAI API key")
	fs.StringVar(&config.OpenAIBaseURL, "b", config.OpenAIBaseURL, "OpenAI base URL")
	fs.StringVar(&config.OpenAIModel, "g", config.OpenAIModel, "OpenAI model")
	fs.IntVar(&config.LoginRateLimit, "r", config.LoginRateLimit, "login attempts per minute per IP")
	fs.IntVar(&config.LoginRateBurst, "x", config.LoginRateBurst, "login burst per IP")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionLifetime = time.Duration(*sessionLifetime) * time.Minute
}
