// Package config loads server settings from the environment.
//
// Every variable is prefixed with SHIFT_ (SHIFT_PORT, SHIFT_DB_PATH, ...).
// A .env file in the working directory is read first when present; real
// environment variables win over it.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const Prefix = "SHIFT_"

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	DBPath          string        `env:"DB_PATH,          default=./data/shifts.db"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	LogPretty       bool          `env:"LOG_PRETTY,       default=false"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS,  default=*"`
	BreakMinutes    int           `env:"BREAK_MINUTES,    default=30"`
	ScenarioFile    string        `env:"SCENARIO_FILE"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	// Range selections untouched for SessionIdleTimeout are dropped every
	// SweepInterval. A zero interval disables the sweeper.
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT, default=30m"`
	SweepInterval      time.Duration `env:"SWEEP_INTERVAL,       default=5m"`
}

// Load reads .env (if any) and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through l, applying the SHIFT_ prefix.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper(Prefix, l),
	})
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.BreakMinutes < 0 {
		return nil, fmt.Errorf("config: %sBREAK_MINUTES must not be negative, got %d", Prefix, cfg.BreakMinutes)
	}
	if cfg.SweepInterval < 0 || cfg.SessionIdleTimeout < 0 {
		return nil, fmt.Errorf("config: %sSWEEP_INTERVAL and %sSESSION_IDLE_TIMEOUT must not be negative", Prefix, Prefix)
	}
	return &cfg, nil
}
