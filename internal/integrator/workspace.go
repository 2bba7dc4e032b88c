package integrator

import (
	"fmt"
	"path/filepath"

	"github.com/arnavsurve/podctl/internal/manifest"
	"github.com/arnavsurve/podctl/internal/workspace"
)

// WorkspaceIntegrator makes the workspace reference the Pods project and
// every user project, then integrates each target definition.
type WorkspaceIntegrator struct {
	cfg Config
}

// NewWorkspaceIntegrator creates a WorkspaceIntegrator.
func NewWorkspaceIntegrator(cfg Config) *WorkspaceIntegrator {
	return &WorkspaceIntegrator{cfg: cfg}
}

// Integrate updates the workspace once, then runs a TargetIntegrator for
// every non-empty definition in order. The first failing definition stops
// the run; definitions integrated before it stay saved.
func (w *WorkspaceIntegrator) Integrate(definitions []*manifest.TargetDefinition) error {
	path, err := w.WorkspacePath()
	if err != nil {
		return err
	}

	ws, err := workspace.Open(path)
	if err != nil {
		return err
	}
	created := !ws.Exists()
	if w.cfg.Root != "" {
		ws.SetRoot(w.cfg.Root)
	}

	for _, p := range w.ProjectPaths(definitions) {
		ws.Add(p)
	}

	if created {
		w.cfg.notice(fmt.Sprintf("From now on use `%s`.", filepath.Base(path)))
	}

	if err := ws.Save(); err != nil {
		return err
	}

	for _, def := range definitions {
		if def.Empty() {
			continue
		}
		if err := NewTargetIntegrator(w.cfg, def).Integrate(); err != nil {
			return fmt.Errorf("integrate %s: %w", def.Name, err)
		}
	}
	return nil
}

// WorkspacePath returns the absolute workspace path.
func (w *WorkspaceIntegrator) WorkspacePath() (string, error) {
	path := w.cfg.WorkspacePath
	if path == "" {
		return "", &ConfigurationError{
			Message:     "Could not automatically select an Xcode workspace.",
			Remediation: "Specify one in your manifest with `workspace: path/to/Workspace.xcworkspace`.",
		}
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.cfg.Root, path)
	}
	return path, nil
}

// ProjectPaths returns the Pods project followed by the user project of
// every non-empty definition. Unset and repeated paths are skipped.
func (w *WorkspaceIntegrator) ProjectPaths(definitions []*manifest.TargetDefinition) []string {
	paths := []string{w.cfg.PodsProjectPath}
	seen := map[string]bool{w.cfg.relative(w.cfg.PodsProjectPath): true}

	for _, def := range definitions {
		if def.Empty() || def.UserProjectPath == "" {
			continue
		}
		key := w.cfg.relative(def.UserProjectPath)
		if seen[key] {
			continue
		}
		seen[key] = true
		paths = append(paths, def.UserProjectPath)
	}
	return paths
}
