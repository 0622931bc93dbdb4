// Package config holds run configuration and the local credentials cache.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

const (
	xdgAppName = "timesheet-sync"
	credsFile  = "creds.json"

	// envPrefix scopes environment overrides: TIMESHEET_SYNC_CACHE_FILE etc.
	envPrefix = "timesheet_sync"
)

// Config is the run configuration. Flags override environment, environment
// overrides defaults.
type Config struct {
	CacheFile    string `envconfig:"CACHE_FILE"`
	HarvestEmail string `envconfig:"HARVEST_EMAIL"`
	// Timezone overrides the timezone reported by the Toggl account when set.
	Timezone string `envconfig:"TIMEZONE"`
}

// DefaultCachePath returns the default credentials cache location.
func DefaultCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName, credsFile), nil
}

// Load reads configuration from the environment and fills defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment config: %w", err)
	}
	if cfg.CacheFile == "" {
		path, err := DefaultCachePath()
		if err != nil {
			return nil, err
		}
		cfg.CacheFile = path
	}
	return &cfg, nil
}
