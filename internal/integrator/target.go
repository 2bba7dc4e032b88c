package integrator

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/arnavsurve/podctl/internal/manifest"
	"github.com/arnavsurve/podctl/internal/xcodeproj"
	"github.com/bitrise-io/go-utils/pathutil"
)

// CopyResourcesPhaseName is the name of the run-script phase that copies
// pod resources into the product.
const CopyResourcesPhaseName = "Copy Pods Resources"

const projectRemediation = "Specify one in your manifest with `xcodeproj: path/to/Project.xcodeproj`."

// TargetIntegrator links the Pods library of one target definition into
// the matching targets of its user project.
//
// The user project and the resolved targets are loaded on first use and kept
// for the lifetime of the integrator; construct a new one to start over.
type TargetIntegrator struct {
	cfg Config
	def *manifest.TargetDefinition

	project  *xcodeproj.Project
	targets  []*xcodeproj.Target
	resolved bool
}

// NewTargetIntegrator creates a TargetIntegrator for def.
func NewTargetIntegrator(cfg Config, def *manifest.TargetDefinition) *TargetIntegrator {
	return &TargetIntegrator{cfg: cfg, def: def}
}

// Definition returns the target definition being integrated.
func (t *TargetIntegrator) Definition() *manifest.TargetDefinition { return t.def }

// Integrate attaches the xcconfig, links the library, and adds the
// resource-copy phase to every resolved target, then saves the project.
// When no target needs integration the project is left untouched.
func (t *TargetIntegrator) Integrate() error {
	targets, err := t.Targets()
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}

	if err := t.AddXCConfigBaseConfiguration(); err != nil {
		return err
	}
	if err := t.AddPodsLibrary(); err != nil {
		return err
	}
	if err := t.AddCopyResourcesScriptPhase(); err != nil {
		return err
	}

	return t.project.Save()
}

// UserProject returns the definition's user project, loading it once.
func (t *TargetIntegrator) UserProject() (*xcodeproj.Project, error) {
	if t.project != nil {
		return t.project, nil
	}

	path := t.def.UserProjectPath
	if path == "" {
		return nil, &ConfigurationError{
			Message:     fmt.Sprintf("Could not automatically select an Xcode project for target definition `%s`.", t.def.Name),
			Remediation: projectRemediation,
		}
	}

	exists, err := pathutil.IsPathExists(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !exists {
		return nil, &ConfigurationError{
			Message:     fmt.Sprintf("The Xcode project `%s` does not exist.", path),
			Remediation: projectRemediation,
		}
	}

	proj, err := xcodeproj.Open(path)
	if err != nil {
		return nil, err
	}
	t.project = proj
	return proj, nil
}

// Targets returns the user targets that still need the library, resolving
// them once: the link_with list if given, else the target named like the
// definition, else the project's first target. Targets whose link phase
// already contains the library are dropped.
func (t *TargetIntegrator) Targets() ([]*xcodeproj.Target, error) {
	if t.resolved {
		return t.targets, nil
	}

	proj, err := t.UserProject()
	if err != nil {
		return nil, err
	}

	candidates, err := t.candidates(proj)
	if err != nil {
		return nil, err
	}

	var targets []*xcodeproj.Target
	for _, target := range candidates {
		if !t.linksLibrary(target) {
			targets = append(targets, target)
		}
	}

	t.targets = targets
	t.resolved = true
	return targets, nil
}

func (t *TargetIntegrator) candidates(proj *xcodeproj.Project) ([]*xcodeproj.Target, error) {
	switch {
	case len(t.def.LinkWith) > 0:
		var selected []*xcodeproj.Target
		for _, target := range proj.Targets() {
			if slices.Contains(t.def.LinkWith, target.Name()) {
				selected = append(selected, target)
			}
		}
		return selected, nil

	case !t.def.IsDefault():
		target := proj.Target(t.def.Name)
		if target == nil {
			return nil, &ConfigurationError{
				Message: fmt.Sprintf("Unable to find a target named `%s` in project `%s`.", t.def.Name, proj.Name()),
			}
		}
		return []*xcodeproj.Target{target}, nil

	default:
		all := proj.Targets()
		if len(all) == 0 {
			return nil, &ConfigurationError{
				Message:     fmt.Sprintf("The project `%s` has no targets.", proj.Name()),
				Remediation: "Add a target or name the targets to integrate with `link_with`.",
			}
		}
		return all[:1], nil
	}
}

// linksLibrary reports whether target's link phase already has a local
// reference to the definition's library.
func (t *TargetIntegrator) linksLibrary(target *xcodeproj.Target) bool {
	phase := target.FrameworksBuildPhase()
	if phase == nil {
		return false
	}
	for _, f := range phase.Files() {
		ref := f.FileReference()
		if ref != nil && !ref.IsProxy() && ref.DisplayName() == t.def.LibraryName() {
			return true
		}
	}
	return false
}

// AddXCConfigBaseConfiguration makes the definition's xcconfig the base
// configuration of every build configuration of the resolved targets.
// Settings the targets set directly, hiding the xcconfig's value, are
// reported as warnings.
func (t *TargetIntegrator) AddXCConfigBaseConfiguration() error {
	targets, err := t.Targets()
	if err != nil || len(targets) == 0 {
		return err
	}

	ref := t.project.NewFileReference(t.def.XCConfigPath)
	keys := sortedKeys(t.def.XCConfig)
	overrides := newOverrideSet()

	for _, target := range targets {
		for _, config := range target.BuildConfigurations() {
			settings := config.BuildSettings()
			for _, key := range keys {
				if settings.Overrides(key) {
					overrides.add(key, target.Name(), config.Name())
				}
			}
			config.SetBaseConfigurationReference(ref)
		}
	}

	for _, key := range overrides.keys() {
		t.cfg.warn(
			fmt.Sprintf("%s the `%s` build setting defined in `%s`.", overrides.describe(key), key, t.def.XCConfigPath),
			[]string{
				"Use the `" + xcodeproj.InheritedMarker + "` flag, or",
				"Remove the build settings from the target.",
			},
		)
	}
	return nil
}

// AddPodsLibrary adds the definition's static library to the project's
// Frameworks group and to the link phase of every resolved target. It does
// not check for an existing link; Targets already filtered those out.
func (t *TargetIntegrator) AddPodsLibrary() error {
	targets, err := t.Targets()
	if err != nil || len(targets) == 0 {
		return err
	}

	lib := t.project.FrameworksGroup().NewStaticLibrary(t.def.LibraryName())
	for _, target := range targets {
		phase := target.FrameworksBuildPhase()
		if phase == nil {
			phase = target.AddFrameworksBuildPhase()
		}
		phase.AddFile(lib)
	}
	return nil
}

// AddCopyResourcesScriptPhase appends a run-script phase invoking the
// definition's resource-copy script to every resolved target. Calling it
// twice adds two phases.
func (t *TargetIntegrator) AddCopyResourcesScriptPhase() error {
	targets, err := t.Targets()
	if err != nil || len(targets) == 0 {
		return err
	}

	script := `"` + t.def.CopyResourcesScriptPath + `"` + "\n"
	for _, target := range targets {
		target.AddShellScriptBuildPhase(CopyResourcesPhaseName, script)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// overrideSet collects, per setting, the target configurations that set it directly.
type overrideSet struct {
	byKey map[string][]*targetConfigs
}

type targetConfigs struct {
	target  string
	configs []string
}

func newOverrideSet() *overrideSet {
	return &overrideSet{byKey: make(map[string][]*targetConfigs)}
}

func (s *overrideSet) add(key, target, config string) {
	entries := s.byKey[key]
	if n := len(entries); n > 0 && entries[n-1].target == target {
		entries[n-1].configs = append(entries[n-1].configs, config)
		return
	}
	s.byKey[key] = append(entries, &targetConfigs{target: target, configs: []string{config}})
}

func (s *overrideSet) keys() []string {
	keys := make([]string, 0, len(s.byKey))
	for k := range s.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// describe renders e.g. "The target `App [Debug - Release]` overrides".
func (s *overrideSet) describe(key string) string {
	entries := s.byKey[key]
	labels := make([]string, 0, len(entries))
	for _, e := range entries {
		labels = append(labels, fmt.Sprintf("`%s [%s]`", e.target, strings.Join(e.configs, " - ")))
	}
	if len(labels) == 1 {
		return "The target " + labels[0] + " overrides"
	}
	return "The targets " + strings.Join(labels, ", ") + " override"
}
