package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/flagx"
	"github.com/dmitrijs2005/gophchat/internal/timex"
)

// JsonConfig is the on-disk shape of Config. Durations use timex.Duration so
// both "30m" and integer nanoseconds are accepted; pointer fields let a
// partial file override only what it names.
type JsonConfig struct {
	HTTPAddr        *string         `json:"http_addr"`
	DatabaseDSN     *string         `json:"database_dsn"`
	SecretKey       *string         `json:"secret_key"`
	SessionLifetime *timex.Duration `json:"session_lifetime"`
	CookieName      *string         `json:"cookie_name"`
	CookieSecure    *bool           `json:"cookie_secure"`
	OpenAIAPIKey    *string         `json:"openai_api_key"`
	OpenAIBaseURL   *string         `json:"openai_base_url"`
	OpenAIModel     *string         `json:"openai_model"`
	LoginRateLimit  *int            `json:"login_rate_limit"`
	LoginRateBurst  *int            `json:"login_rate_burst"`
	LogLevel        *string         `json:"log_level"`
}

// parseJson overlays cfg with the JSON file named by -c/-config, if any.
// It panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.HTTPAddr, jc.HTTPAddr)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.SecretKey, jc.SecretKey)
	if jc.SessionLifetime != nil {
		cfg.SessionLifetime = time.Duration(jc.SessionLifetime.Duration)
	}
	setString(&cfg.CookieName, jc.CookieName)
	if jc.CookieSecure != nil {
		cfg.CookieSecure = *jc.CookieSecure
	}
	setString(&cfg.OpenAIAPIKey, jc.OpenAIAPIKey)
	setString(&cfg.OpenAIBaseURL, jc.OpenAIBaseURL)
	setString(&cfg.OpenAIModel, jc.OpenAIModel)
	if jc.LoginRateLimit != nil {
		cfg.LoginRateLimit = *jc.LoginRateLimit
	}
	if jc.LoginRateBurst != nil {
		cfg.LoginRateBurst = *jc.LoginRateBurst
	}
	setString(&cfg.LogLevel, jc.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
