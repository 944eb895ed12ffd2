// Package config loads ledger-replay settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// EnvFileVar names the variable holding the dotenv path.
	EnvFileVar = "LEDGER_ENV_FILE"
	// DefaultEnvFile is read when EnvFileVar is unset.
	DefaultEnvFile = ".env"
)

// Config holds process-level settings. Ledger rules are not configurable.
type Config struct {
	Environment string `env:"ENV" envDefault:"production"`
	LogLevel    string `env:"LOG_LEVEL"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"ledger-replay"`
	TraceParent string `env:"TRACEPARENT"`
	TraceState  string `env:"TRACESTATE"`
}

// Load reads the dotenv file, if present, then parses the environment.
// Variables already set in the process win over the file.
func Load() (Config, error) {
	path := os.Getenv(EnvFileVar)
	if path == "" {
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file %q: %w", path, err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}
