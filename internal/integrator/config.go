// Package integrator wires a generated Pods project into the user's Xcode
// workspace and links its library into the user's targets.
package integrator

import (
	"path/filepath"

	"github.com/arnavsurve/podctl/internal/manifest"
	"github.com/arnavsurve/podctl/internal/workspace"
)

// Reporter receives advisory output. Nothing it is told affects control flow.
type Reporter interface {
	// Notice reports something informational, such as a newly created workspace.
	Notice(message string)
	// Warn reports a problem the user should fix, with the ways to fix it.
	Warn(message string, actions []string)
}

// Config is shared by the workspace and target integrators.
type Config struct {
	// Root is the installation root; workspace entries are relative to it.
	Root string
	// WorkspacePath is the workspace to create or update. Empty is an error.
	WorkspacePath string
	// PodsProjectPath is the generated Pods project.
	PodsProjectPath string
	// Silent suppresses notices. Warnings are always reported.
	Silent bool
	// Reporter receives notices and warnings. Nil discards them.
	Reporter Reporter
}

// ConfigFromManifest builds the integrator configuration of a manifest.
func ConfigFromManifest(m *manifest.Manifest, reporter Reporter) Config {
	return Config{
		Root:            m.Root,
		WorkspacePath:   m.WorkspacePath,
		PodsProjectPath: m.PodsProjectPath,
		Silent:          m.Silent,
		Reporter:        reporter,
	}
}

func (c Config) notice(message string) {
	if c.Silent || c.Reporter == nil {
		return
	}
	c.Reporter.Notice(message)
}

func (c Config) warn(message string, actions []string) {
	if c.Reporter == nil {
		return
	}
	c.Reporter.Warn(message, actions)
}

// relative returns path relative to the root in workspace form.
func (c Config) relative(path string) string {
	if !filepath.IsAbs(path) || c.Root == "" {
		return workspace.Normalize(path)
	}
	rel, err := filepath.Rel(c.Root, path)
	if err != nil {
		return workspace.Normalize(path)
	}
	return workspace.Normalize(rel)
}
