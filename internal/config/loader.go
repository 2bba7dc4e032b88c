package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFile is the config file name looked up in the installation root
const ConfigFile = ".podctl.toml"

// FileSystem abstracts file operations for testability
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFileSystem implements FileSystem using the real OS
type OSFileSystem struct{}

func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader handles configuration loading with injected dependencies
type Loader struct {
	fs FileSystem
}

// NewLoader creates a production Loader using the real filesystem
func NewLoader() *Loader {
	return &Loader{fs: OSFileSystem{}}
}

// NewLoaderWithFS creates a Loader with a custom filesystem (for testing)
func NewLoaderWithFS(fs FileSystem) *Loader {
	return &Loader{fs: fs}
}

// Load reads <root>/.podctl.toml over the defaults. Keys present in the
// file replace defaults, even when zero; missing keys keep them. A missing
// file yields the defaults.
func (l *Loader) Load(root string) (*Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(root, ConfigFile)

	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Load is a convenience function using the default loader
func Load(root string) (*Config, error) {
	return NewLoader().Load(root)
}
