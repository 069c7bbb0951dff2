package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/piwi3910/BoxFit/internal/model"
)

// Environment variables that override AppConfig.
const (
	EnvAddr           = "BOXFIT_ADDR"
	EnvDBDriver       = "BOXFIT_DB_DRIVER"
	EnvDBDSN          = "BOXFIT_DB_DSN"
	EnvTimeoutSeconds = "BOXFIT_TIMEOUT_SECONDS"
	EnvSeed           = "BOXFIT_SEED"

	// EnvHome replaces ~/.boxfit as the config and catalog directory.
	EnvHome = "BOXFIT_HOME"
)

// ApplyEnv loads envFile (if it exists) into the process environment and
// applies the BOXFIT_* overrides to config. Variables already set in the
// environment win over the file. An empty envFile skips loading.
func ApplyEnv(config model.AppConfig, envFile string) (model.AppConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if v := os.Getenv(EnvAddr); v != "" {
		config.Addr = v
	}
	if v := os.Getenv(EnvDBDriver); v != "" {
		config.DBDriver = v
	}
	if v := os.Getenv(EnvDBDSN); v != "" {
		config.DBDSN = v
	}
	if v := os.Getenv(EnvTimeoutSeconds); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return config, fmt.Errorf("%s: invalid value %q", EnvTimeoutSeconds, v)
		}
		config.TimeoutSeconds = n
	}
	if v := os.Getenv(EnvSeed); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return config, fmt.Errorf("%s: invalid value %q", EnvSeed, v)
		}
		config.Seed = n
	}
	return config, nil
}
