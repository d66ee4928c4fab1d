package config

import "time"

// Backend modes.
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

// Config holds runtime settings for the gophchat CLI.
//
// RequestTimeout of zero leaves the HTTP transport default in place.
type Config struct {
	ServerURL        string
	Mode             string
	LocalDBPath      string
	RequestTimeout   time.Duration
	LogoutWithUserID bool
	LogLevel         string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:5000"
	c.Mode = ModeRemote
	c.LocalDBPath = "gophchat.db"
	c.RequestTimeout = 0
	c.LogoutWithUserID = false
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
