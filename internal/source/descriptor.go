package source

// Descriptor is the configuration record for one source: which connector
// implementation to build, where it sits in the priority order, and the
// free-form settings handed verbatim to the connector constructor
// (credentials, directory paths, library codes).
//
// Descriptors are built once at startup from config and never mutated
// afterwards.
type Descriptor struct {
	// Name is the display key for the source. Uniqueness is not enforced;
	// GetByName returns the first match, so registration order matters
	// when names collide.
	Name string `mapstructure:"name" yaml:"name"`
	// Kind selects the connector factory ("aladin", "librarynet", ...).
	Kind string `mapstructure:"kind" yaml:"kind"`
	// Priority orders sources in the report; lower runs earlier.
	Priority int `mapstructure:"priority" yaml:"priority"`
	// Enabled gates the source out of searches without removing its config.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Sync marks a blocking connector that needs the sync adapter.
	Sync bool `mapstructure:"sync" yaml:"sync"`
	// Settings is passed to the connector constructor unchanged.
	Settings map[string]string `mapstructure:"settings" yaml:"settings,omitempty"`
}
