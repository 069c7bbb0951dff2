package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/BoxFit/internal/model"
	"github.com/piwi3910/BoxFit/internal/store"
)

// maxRecentInputs bounds AppConfig.RecentFiles.
const maxRecentInputs = 10

// DefaultConfigDir returns $BOXFIT_HOME, or ~/.boxfit when it is unset.
func DefaultConfigDir() string {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".boxfit")
}

// DefaultConfigPath returns the config.json inside DefaultConfigDir.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// CheckAppConfig reports every setting the engine or service cannot run
// with. Zero search knobs are allowed and mean "use the default".
func CheckAppConfig(c model.AppConfig) error {
	var errs []error
	if c.DBDriver != store.DriverSQLite && c.DBDriver != store.DriverPostgres {
		errs = append(errs, fmt.Errorf("db_driver %q: want %s or %s", c.DBDriver, store.DriverSQLite, store.DriverPostgres))
	}
	if c.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("timeout_seconds %d is negative", c.TimeoutSeconds))
	}
	knobs := []struct {
		name string
		v    int
	}{
		{"beam_width", c.BeamWidth},
		{"branch_per_state", c.BranchPerState},
		{"anchor_limit", c.AnchorLimit},
		{"random_orderings", c.RandomOrderings},
		{"flex_shuffles", c.FlexShuffles},
		{"budget_shuffles", c.BudgetShuffles},
		{"repack_shuffles", c.RepackShuffles},
	}
	for _, k := range knobs {
		if k.v < 0 {
			errs = append(errs, fmt.Errorf("%s %d is negative", k.name, k.v))
		}
	}
	return errors.Join(errs...)
}

// SaveAppConfig checks config and writes it as JSON, creating parent
// directories.
func SaveAppConfig(path string, config model.AppConfig) error {
	if err := CheckAppConfig(config); err != nil {
		return fmt.Errorf("config not saved: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadAppConfig reads the config at path over DefaultAppConfig, so missing
// fields keep their defaults. A missing file yields the defaults.
func LoadAppConfig(path string) (model.AppConfig, error) {
	config := model.DefaultAppConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return model.AppConfig{}, err
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return model.AppConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := CheckAppConfig(config); err != nil {
		return model.AppConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	if config.RecentFiles == nil {
		config.RecentFiles = []string{}
	}
	return config, nil
}

// RememberInput records a product or box list as the most recent input.
// Paths are stored absolute, newest first, without duplicates.
func RememberInput(config model.AppConfig, path string) model.AppConfig {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	recent := make([]string, 0, maxRecentInputs)
	recent = append(recent, path)
	for _, p := range config.RecentFiles {
		if len(recent) == maxRecentInputs {
			break
		}
		if p != path {
			recent = append(recent, p)
		}
	}
	config.RecentFiles = recent
	return config
}
