package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded into the process environment before GOPHCHAT_* variables
// are read. Variables already set in the environment win.
var envFile = ".env"

// parseEnv overlays cfg with GOPHCHAT_* environment variables. A missing
// .env file is not an error; malformed values panic.
//
//	GOPHCHAT_HTTP_ADDR          GOPHCHAT_DATABASE_DSN     GOPHCHAT_SECRET_KEY
//	GOPHCHAT_SESSION_LIFETIME   (Go duration, e.g. "30m")
//	GOPHCHAT_COOKIE_NAME        GOPHCHAT_COOKIE_SECURE    (bool)
//	GOPHCHAT_OPENAI_API_KEY     GOPHCHAT_OPENAI_BASE_URL  GOPHCHAT_OPENAI_MODEL
//	GOPHCHAT_LOGIN_RATE_LIMIT   GOPHCHAT_LOGIN_RATE_BURST (ints)
//	GOPHCHAT_LOG_LEVEL
func parseEnv(cfg *Config) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	envString("GOPHCHAT_HTTP_ADDR", &cfg.HTTPAddr)
	envString("GOPHCHAT_DATABASE_DSN", &cfg.DatabaseDSN)
	envString("GOPHCHAT_SECRET_KEY", &cfg.SecretKey)
	envString("GOPHCHAT_COOKIE_NAME", &cfg.CookieName)
	envString("GOPHCHAT_OPENAI_API_KEY", &cfg.OpenAIAPIKey)
	envString("GOPHCHAT_OPENAI_BASE_URL", &cfg.OpenAIBaseURL)
	envString("GOPHCHAT_OPENAI_MODEL", &cfg.OpenAIModel)
	envString("GOPHCHAT_LOG_LEVEL", &cfg.LogLevel)

	if v, ok := os.LookupEnv("GOPHCHAT_SESSION_LIFETIME"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		cfg.SessionLifetime = d
	}
	if v, ok := os.LookupEnv("GOPHCHAT_COOKIE_SECURE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		cfg.CookieSecure = b
	}
	envInt("GOPHCHAT_LOGIN_RATE_LIMIT", &cfg.LoginRateLimit)
	envInt("GOPHCHAT_LOGIN_RATE_BURST", &cfg.LoginRateBurst)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}
