package testutil

import (
	"testing"

	"github.com/spf13/viper"

	"bookhunt/internal/config"
)

// ConfigState holds the state of the config package variables.
type ConfigState struct {
	OverwriteFiles bool
	DownloadCovers bool
	ConfirmSingle  bool
}

// SaveConfigState captures the current state of config package variables.
func SaveConfigState() ConfigState {
	return ConfigState{
		OverwriteFiles: config.OverwriteFiles,
		DownloadCovers: config.DownloadCovers,
		ConfirmSingle:  config.ConfirmSingle,
	}
}

// RestoreConfigState restores the config package variables to a saved state.
func RestoreConfigState(state ConfigState) {
	config.OverwriteFiles = state.OverwriteFiles
	config.DownloadCovers = state.DownloadCovers
	config.ConfirmSingle = state.ConfirmSingle
}

// ResetConfig saves the current config state, resets viper, and schedules
// restoration when the test completes.
func ResetConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// SetViperValue sets a viper configuration value and schedules cleanup.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)

	viper.Set(key, value)

	t.Cleanup(func() {
		if hadValue {
			viper.Set(key, oldValue)
		}
		// viper has no Unset, so a previously-unset key stays set.
	})
}

// SetupTestCache points the response cache at a fresh database inside the
// test environment. Callers reset the cache singleton themselves; this
// helper stays viper-only to avoid import cycles with the cache package.
func SetupTestCache(t *testing.T, env *TestEnv) string {
	t.Helper()

	env.MkdirAll("cache")
	dbPath := env.Path("cache", "test-cache.db")
	viper.Set("cache.dbfile", dbPath)
	viper.Set("cache.ttl", "24h")

	return dbPath
}
