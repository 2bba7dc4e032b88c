// Package config loads the optional .podctl.toml settings of an installation root.
package config

// Config holds podctl settings. Command-line flags override these values.
type Config struct {
	// Manifest is the manifest file, relative to the root.
	Manifest string `toml:"manifest"`
	// Sandbox is the directory holding the generated Pods project and support files.
	Sandbox string `toml:"sandbox"`
	// Workspace overrides the workspace the manifest selects.
	Workspace string `toml:"workspace"`
	// Silent suppresses informational notices.
	Silent bool `toml:"silent"`

	Watch WatchConfig `toml:"watch"`
}

// WatchConfig controls `podctl integrate --watch`.
type WatchConfig struct {
	DebounceMs int `toml:"debounce_ms"`
}

// DefaultConfig returns the settings used when no config file exists
func DefaultConfig() *Config {
	return &Config{
		Manifest: "Podctl.yaml",
		Sandbox:  "Pods",
		Watch: WatchConfig{
			DebounceMs: 300,
		},
	}
}
