package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full server configuration, read from the environment with
// an optional .env overlay for local runs.
type Config struct {
	Addr        string   `env:"ADDR" envDefault:":8080"`
	AuthSecret  string   `env:"AUTH_SECRET"`
	DatabaseURL string   `env:"DATABASE_URL"`
	Origins     []string `env:"ORIGINS" envSeparator:","`

	RTCAppID       string        `env:"RTC_APP_ID"`
	RTCCertificate string        `env:"RTC_APP_CERTIFICATE"`
	RTCTokenTTL    time.Duration `env:"RTC_TOKEN_TTL" envDefault:"1h"`

	SendBuffer      int           `env:"CLIENT_SEND_BUFFER" envDefault:"32"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func Load() (Config, error) {
	_ = godotenv.Load()
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
