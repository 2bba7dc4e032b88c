// Package manifest describes which Xcode targets receive the Pods library
// and where the generated support files live.
package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/arnavsurve/podctl/internal/project"
)

// DefaultName is the name of the implicit target definition that applies to
// the first target of the user project.
const DefaultName = "default"

// DefaultSandbox is the directory, relative to the root, holding generated files.
const DefaultSandbox = "Pods"

// Errors returned while building a manifest.
var (
	ErrNoTargets      = errors.New("manifest defines no targets")
	ErrDuplicateName  = errors.New("duplicate target definition")
	ErrInvalidPodfile = errors.New("invalid podfile description")
)

// TargetDefinition is one named unit of integration.
type TargetDefinition struct {
	// Name is the definition name, or DefaultName.
	Name string
	// LinkWith lists the user targets to integrate. Empty means resolve by name.
	LinkWith []string
	// XCConfig holds the settings the generated xcconfig file sets.
	XCConfig map[string]string
	// UserProjectPath is the absolute path of the user .xcodeproj, or empty
	// when none was declared or found.
	UserProjectPath string
	// Label names the generated library and support files.
	Label string
	// XCConfigPath is the generated xcconfig, relative to the user project's directory.
	XCConfigPath string
	// CopyResourcesScriptPath is the resource-copy script as invoked from a build phase.
	CopyResourcesScriptPath string
	// Dependencies are the pods the definition pulls in.
	Dependencies []string
}

// IsDefault reports whether d is the default definition.
func (d *TargetDefinition) IsDefault() bool { return d.Name == DefaultName }

// Empty reports whether d has nothing to integrate.
func (d *TargetDefinition) Empty() bool { return len(d.Dependencies) == 0 }

// LibraryName is the file name of the static library built for d.
func (d *TargetDefinition) LibraryName() string { return "lib" + d.Label + ".a" }

// Manifest is the fully resolved input of an integration run.
type Manifest struct {
	// Root is the installation root; workspace entries are relative to it.
	Root string
	// WorkspacePath is the absolute workspace path, or empty when none could be chosen.
	WorkspacePath string
	// PodsProjectPath is the absolute path of the generated Pods project.
	PodsProjectPath string
	// Silent suppresses informational notices.
	Silent bool

	TargetDefinitions []*TargetDefinition
}

// Options control how relative manifest paths are resolved.
type Options struct {
	Root      string
	Sandbox   string
	Workspace string
	Silent    bool
}

func (o Options) sandbox() string {
	if o.Sandbox == "" {
		return DefaultSandbox
	}
	return o.Sandbox
}

// declaredDefinition is a definition as written by the user, before paths are derived.
type declaredDefinition struct {
	Name     string
	Project  string
	LinkWith []string
	XCConfig map[string]string
	Pods     []string
}

// label returns the library label for a definition name.
func label(name string) string {
	if name == DefaultName {
		return "Pods"
	}
	return "Pods-" + name
}

func assemble(decls []declaredDefinition, workspacePath string, opts Options) (*Manifest, error) {
	if len(decls) == 0 {
		return nil, ErrNoTargets
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	sandboxDir := absolute(root, opts.sandbox())

	implicit, err := implicitProject(root)
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		Root:            root,
		PodsProjectPath: filepath.Join(sandboxDir, "Pods"+project.XcodeProjExt),
		Silent:          opts.Silent,
	}

	seen := make(map[string]bool, len(decls))
	for _, s := range decls {
		name := s.Name
		if name == "" {
			name = DefaultName
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		seen[name] = true

		def := &TargetDefinition{
			Name:         name,
			LinkWith:     s.LinkWith,
			XCConfig:     s.XCConfig,
			Label:        label(name),
			Dependencies: s.Pods,
		}
		if s.Project != "" {
			def.UserProjectPath = absolute(root, withExt(s.Project, project.XcodeProjExt))
		} else {
			def.UserProjectPath = implicit
		}

		srcRoot := root
		if def.UserProjectPath != "" {
			srcRoot = filepath.Dir(def.UserProjectPath)
		}
		def.XCConfigPath = relative(srcRoot, filepath.Join(sandboxDir, def.Label+".xcconfig"))
		def.CopyResourcesScriptPath = "${SRCROOT}/" + relative(srcRoot, filepath.Join(sandboxDir, def.Label+"-resources.sh"))

		m.TargetDefinitions = append(m.TargetDefinitions, def)
	}

	switch {
	case opts.Workspace != "":
		m.WorkspacePath = absolute(root, withExt(opts.Workspace, project.XcWorkspaceExt))
	case workspacePath != "":
		m.WorkspacePath = absolute(root, withExt(workspacePath, project.XcWorkspaceExt))
	default:
		for _, def := range m.TargetDefinitions {
			if def.UserProjectPath == "" {
				continue
			}
			name := strings.TrimSuffix(filepath.Base(def.UserProjectPath), project.XcodeProjExt)
			m.WorkspacePath = filepath.Join(root, name+project.XcWorkspaceExt)
			break
		}
	}

	return m, nil
}

// implicitProject returns the only .xcodeproj in root, or "" when there is
// none or more than one.
func implicitProject(root string) (string, error) {
	projects, err := project.NewDetector().UserProjects(root)
	if err != nil {
		return "", err
	}
	if len(projects) != 1 {
		return "", nil
	}
	return projects[0], nil
}

func absolute(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

func relative(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}

func withExt(path, ext string) string {
	if filepath.Ext(path) == ext {
		return path
	}
	return path + ext
}
