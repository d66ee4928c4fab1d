package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/flagx"
	"github.com/dmitrijs2005/gophchat/internal/timex"
)

// JsonConfig is the on-disk shape of Config. Pointer fields distinguish
// "absent" from zero so a partial file only overrides what it names.
type JsonConfig struct {
	ServerURL        *string         `json:"server_url"`
	Mode             *string         `json:"mode"`
	LocalDBPath      *string         `json:"local_db_path"`
	RequestTimeout   *timex.Duration `json:"request_timeout"`
	LogoutWithUserID *bool           `json:"logout_with_user_id"`
	LogLevel         *string         `json:"log_level"`
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

	if jc.ServerURL != nil {
		cfg.ServerURL = *jc.ServerURL
	}
	if jc.Mode != nil {
		cfg.Mode = *jc.Mode
	}
	if jc.LocalDBPath != nil {
		cfg.LocalDBPath = *jc.LocalDBPath
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
	if jc.LogoutWithUserID != nil {
		cfg.LogoutWithUserID = *jc.LogoutWithUserID
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
}
