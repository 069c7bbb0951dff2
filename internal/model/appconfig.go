package model

import "time"

// AppConfig holds application-wide preferences and engine tuning defaults.
type AppConfig struct {
	// Service settings
	Addr           string `json:"addr"`
	DBDriver       string `json:"db_driver"` // "sqlite3" or "pgx"
	DBDSN          string `json:"db_dsn"`
	TimeoutSeconds int    `json:"timeout_seconds"` // watchdog for a single packing run

	// Search tuning. Seed 0 means draw fresh entropy per run.
	Seed            int64 `json:"seed"`
	BeamWidth       int   `json:"beam_width"`
	BranchPerState  int   `json:"branch_per_state"`
	AnchorLimit     int   `json:"anchor_limit"`
	RandomOrderings int   `json:"random_orderings"`
	FlexShuffles    int   `json:"flex_shuffles"`
	BudgetShuffles  int   `json:"budget_shuffles"`
	RepackShuffles  int   `json:"repack_shuffles"`

	RecentFiles []string `json:"recent_files"`
}

// DefaultAppConfig returns an AppConfig populated with the defaults the
// packing heuristics were tuned with.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Addr:            ":8080",
		DBDriver:        "sqlite3",
		DBDSN:           "file:boxfit.db",
		TimeoutSeconds:  30,
		BeamWidth:       12,
		BranchPerState:  6,
		AnchorLimit:     16,
		RandomOrderings: 4,
		FlexShuffles:    24,
		BudgetShuffles:  20,
		RepackShuffles:  8,
		RecentFiles:     []string{},
	}
}

// Timeout returns the watchdog duration, falling back to 30s when unset.
func (c AppConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
