// Package config holds process-wide configuration shared by the CLI
// commands and the HTTP server.
package config

import (
	"log/slog"

	"github.com/spf13/viper"

	"bookhunt/internal/source"
)

// Global configuration variables
var (
	// OverwriteFiles controls whether existing report files are overwritten.
	OverwriteFiles bool
	// DownloadCovers controls whether the cover image of the selected
	// candidate is downloaded next to the report.
	DownloadCovers bool
	// ConfirmSingle forces an explicit confirmation even when identity
	// resolution yields exactly one candidate (default: auto-select).
	ConfirmSingle bool
)

// InitConfig initializes the global configuration from viper.
func InitConfig() {
	viper.SetDefault("OutputDir", "./reports/")
	viper.SetDefault("OverwriteFiles", false)
	viper.SetDefault("search.confirm_single", false)
	viper.SetDefault("search.download_covers", false)

	OverwriteFiles = viper.GetBool("OverwriteFiles")
	ConfirmSingle = viper.GetBool("search.confirm_single")
	DownloadCovers = viper.GetBool("search.download_covers")
}

// SetOverwriteFiles sets the OverwriteFiles flag.
func SetOverwriteFiles(overwrite bool) {
	OverwriteFiles = overwrite
}

// SetDownloadCovers sets the DownloadCovers flag.
func SetDownloadCovers(download bool) {
	DownloadCovers = download
}

// OutputDir returns the directory report files are written to.
func OutputDir() string {
	return viper.GetString("OutputDir")
}

// SourceDescriptors reads the ordered `sources:` list from config.
// A malformed list yields an empty slice and a warning, never an error:
// the caller treats "no sources" as an empty registry.
func SourceDescriptors() []source.Descriptor {
	var descriptors []source.Descriptor
	if err := viper.UnmarshalKey("sources", &descriptors); err != nil {
		slog.Warn("Failed to parse sources from config", "error", err)
		return nil
	}
	return descriptors
}
