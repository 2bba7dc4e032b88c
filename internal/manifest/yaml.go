package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the manifest file name looked up in the root.
const DefaultFile = "Podctl.yaml"

// file is the on-disk layout of Podctl.yaml.
type file struct {
	Workspace string  `yaml:"workspace,omitempty"`
	Project   string  `yaml:"xcodeproj,omitempty"`
	Targets   []entry `yaml:"targets"`
}

type entry struct {
	Name     string            `yaml:"name,omitempty"`
	Project  string            `yaml:"xcodeproj,omitempty"`
	LinkWith []string          `yaml:"link_with,omitempty"`
	XCConfig map[string]string `yaml:"xcconfig,omitempty"`
	Pods     []string          `yaml:"pods,omitempty"`
}

// Load reads a YAML manifest. When opts.Root is empty the manifest's
// directory is the root.
func Load(path string, opts Options) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	if opts.Root == "" {
		opts.Root = filepath.Dir(path)
	}
	return Parse(data, opts)
}

// Parse parses YAML manifest content.
func Parse(data []byte, opts Options) (*Manifest, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing manifest YAML: %w", err)
	}

	decls := make([]declaredDefinition, 0, len(f.Targets))
	for _, e := range f.Targets {
		project := e.Project
		if project == "" {
			project = f.Project
		}
		decls = append(decls, declaredDefinition{
			Name:     e.Name,
			Project:  project,
			LinkWith: e.LinkWith,
			XCConfig: e.XCConfig,
			Pods:     e.Pods,
		})
	}

	return assemble(decls, f.Workspace, opts)
}
