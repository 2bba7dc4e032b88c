package xcodeproj

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	isaProject              = "PBXProject"
	isaNativeTarget         = "PBXNativeTarget"
	isaConfigurationList    = "XCConfigurationList"
	isaBuildConfiguration   = "XCBuildConfiguration"
	isaBuildFile            = "PBXBuildFile"
	isaFileReference        = "PBXFileReference"
	isaReferenceProxy       = "PBXReferenceProxy"
	isaGroup                = "PBXGroup"
	isaFrameworksBuildPhase = "PBXFrameworksBuildPhase"
	isaShellScriptPhase     = "PBXShellScriptBuildPhase"
)

// object is one entry of the objects table.
type object map[string]interface{}

func asObject(v interface{}) object {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	return object(m)
}

func (o object) isa() string { return o.str("isa") }

func (o object) str(key string) string {
	if o == nil {
		return ""
	}
	return stringValue(o[key])
}

func (o object) list(key string) []string {
	if o == nil {
		return nil
	}
	return stringList(o[key])
}

func (o object) appendToList(key, id string) {
	items, _ := o[key].([]interface{})
	o[key] = append(items, id)
}

// stringValue flattens a decoded plist value into a string. Arrays are
// joined with spaces, the way Xcode displays list-valued build settings.
func stringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []interface{}:
		return strings.Join(stringList(t), " ")
	default:
		return fmt.Sprint(t)
	}
}

func stringList(v interface{}) []string {
	switch t := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, stringValue(item))
		}
		return out
	case string:
		return []string{t}
	default:
		return nil
	}
}

// Target is a native build target.
type Target struct {
	p  *Project
	ID string
}

func (t *Target) obj() object { return t.p.object(t.ID) }

// Name returns the target name.
func (t *Target) Name() string { return t.obj().str("name") }

// ProductType returns the product type identifier, e.g. com.apple.product-type.application.
func (t *Target) ProductType() string { return t.obj().str("productType") }

// BuildConfigurations returns the configurations of the target's configuration list.
func (t *Target) BuildConfigurations() []*BuildConfiguration {
	list := t.p.object(t.obj().str("buildConfigurationList"))
	if list.isa() != isaConfigurationList {
		return nil
	}

	var configs []*BuildConfiguration
	for _, id := range list.list("buildConfigurations") {
		if t.p.object(id).isa() != isaBuildConfiguration {
			continue
		}
		configs = append(configs, &BuildConfiguration{p: t.p, ID: id})
	}
	return configs
}

// BuildPhases returns the target's build phases in order.
func (t *Target) BuildPhases() []*BuildPhase {
	var phases []*BuildPhase
	for _, id := range t.obj().list("buildPhases") {
		if t.p.object(id) == nil {
			continue
		}
		phases = append(phases, &BuildPhase{p: t.p, ID: id})
	}
	return phases
}

// FrameworksBuildPhase returns the target's link phase, or nil.
func (t *Target) FrameworksBuildPhase() *BuildPhase {
	for _, ph := range t.BuildPhases() {
		if ph.ISA() == isaFrameworksBuildPhase {
			return ph
		}
	}
	return nil
}

// AddFrameworksBuildPhase appends an empty link phase to the target.
func (t *Target) AddFrameworksBuildPhase() *BuildPhase {
	id := t.p.addObject(isaFrameworksBuildPhase, object{
		"buildActionMask":                    "2147483647",
		"files":                              []interface{}{},
		"runOnlyForDeploymentPostprocessing": "0",
	})
	t.obj().appendToList("buildPhases", id)
	return &BuildPhase{p: t.p, ID: id}
}

// ShellScriptBuildPhases returns the target's run-script phases.
func (t *Target) ShellScriptBuildPhases() []*BuildPhase {
	var phases []*BuildPhase
	for _, ph := range t.BuildPhases() {
		if ph.ISA() == isaShellScriptPhase {
			phases = append(phases, ph)
		}
	}
	return phases
}

// AddShellScriptBuildPhase appends a run-script phase at the end of the target.
func (t *Target) AddShellScriptBuildPhase(name, script string) *BuildPhase {
	id := t.p.addObject(isaShellScriptPhase, object{
		"buildActionMask":                    "2147483647",
		"files":                              []interface{}{},
		"inputPaths":                         []interface{}{},
		"name":                               name,
		"outputPaths":                        []interface{}{},
		"runOnlyForDeploymentPostprocessing": "0",
		"shellPath":                          "/bin/sh",
		"shellScript":                        script,
	})
	t.obj().appendToList("buildPhases", id)
	return &BuildPhase{p: t.p, ID: id}
}

// LinkedLibraryNames returns the display names of the files in the link phase.
func (t *Target) LinkedLibraryNames() []string {
	ph := t.FrameworksBuildPhase()
	if ph == nil {
		return nil
	}

	var names []string
	for _, f := range ph.Files() {
		if ref := f.FileReference(); ref != nil {
			names = append(names, ref.DisplayName())
		}
	}
	return names
}

// BuildConfiguration is a named set of build settings.
type BuildConfiguration struct {
	p  *Project
	ID string
}

func (c *BuildConfiguration) obj() object { return c.p.object(c.ID) }

// Name returns the configuration name, e.g. Debug.
func (c *BuildConfiguration) Name() string { return c.obj().str("name") }

// BuildSettings returns the settings set directly on the configuration.
func (c *BuildConfiguration) BuildSettings() BuildSettings {
	return newBuildSettings(asObject(c.obj()["buildSettings"]))
}

// SetBuildSetting sets a direct build setting on the configuration.
func (c *BuildConfiguration) SetBuildSetting(key, value string) {
	o := c.obj()
	settings := asObject(o["buildSettings"])
	if settings == nil {
		settings = object{}
		o["buildSettings"] = map[string]interface{}(settings)
	}
	settings[key] = value
}

// BaseConfigurationReference returns the attached xcconfig file, or nil.
func (c *BuildConfiguration) BaseConfigurationReference() *FileReference {
	id := c.obj().str("baseConfigurationReference")
	if c.p.object(id) == nil {
		return nil
	}
	return &FileReference{p: c.p, ID: id}
}

// SetBaseConfigurationReference attaches ref as the configuration's base xcconfig.
func (c *BuildConfiguration) SetBaseConfigurationReference(ref *FileReference) {
	c.obj()["baseConfigurationReference"] = ref.ID
}

// BuildPhase is any build phase of a target.
type BuildPhase struct {
	p  *Project
	ID string
}

func (ph *BuildPhase) obj() object { return ph.p.object(ph.ID) }

// ISA returns the phase class, e.g. PBXFrameworksBuildPhase.
func (ph *BuildPhase) ISA() string { return ph.obj().isa() }

// Name returns the phase name. Only run-script phases usually carry one.
func (ph *BuildPhase) Name() string { return ph.obj().str("name") }

// ShellScript returns the script body of a run-script phase.
func (ph *BuildPhase) ShellScript() string { return ph.obj().str("shellScript") }

// Files returns the build files of the phase.
func (ph *BuildPhase) Files() []*BuildFile {
	var files []*BuildFile
	for _, id := range ph.obj().list("files") {
		if ph.p.object(id).isa() != isaBuildFile {
			continue
		}
		files = append(files, &BuildFile{p: ph.p, ID: id})
	}
	return files
}

// AddFile appends a build file for ref to the phase.
func (ph *BuildPhase) AddFile(ref *FileReference) *BuildFile {
	id := ph.p.addObject(isaBuildFile, object{"fileRef": ref.ID})
	ph.obj().appendToList("files", id)
	return &BuildFile{p: ph.p, ID: id}
}

// BuildFile is a phase's use of a file reference.
type BuildFile struct {
	p  *Project
	ID string
}

// FileReference returns the referenced file, or nil when dangling.
func (f *BuildFile) FileReference() *FileReference {
	id := f.p.object(f.ID).str("fileRef")
	switch f.p.object(id).isa() {
	case isaFileReference, isaReferenceProxy:
		return &FileReference{p: f.p, ID: id}
	default:
		return nil
	}
}

// FileReference is a PBXFileReference or a PBXReferenceProxy.
type FileReference struct {
	p  *Project
	ID string
}

func (r *FileReference) obj() object { return r.p.object(r.ID) }

// Name returns the explicit name, which may be empty.
func (r *FileReference) Name() string { return r.obj().str("name") }

// Path returns the reference's path relative to its source tree.
func (r *FileReference) Path() string { return r.obj().str("path") }

// SourceTree returns the reference's source tree, e.g. BUILT_PRODUCTS_DIR.
func (r *FileReference) SourceTree() string { return r.obj().str("sourceTree") }

// DisplayName returns the name Xcode shows: the explicit name, else the
// last path component.
func (r *FileReference) DisplayName() string {
	if name := r.Name(); name != "" {
		return name
	}
	return filepath.Base(r.Path())
}

// IsProxy reports whether the reference points into another project.
func (r *FileReference) IsProxy() bool { return r.obj().isa() == isaReferenceProxy }

// Group is a PBXGroup.
type Group struct {
	p  *Project
	ID string
}

func (g *Group) obj() object { return g.p.object(g.ID) }

// Name returns the group name, falling back to its path.
func (g *Group) Name() string {
	if name := g.obj().str("name"); name != "" {
		return name
	}
	return g.obj().str("path")
}

// Group returns the direct child group with the given name, or nil.
func (g *Group) Group(name string) *Group {
	for _, id := range g.obj().list("children") {
		if g.p.object(id).isa() != isaGroup {
			continue
		}
		child := &Group{p: g.p, ID: id}
		if child.Name() == name {
			return child
		}
	}
	return nil
}

// NewGroup appends a child group.
func (g *Group) NewGroup(name string) *Group {
	id := g.p.addObject(isaGroup, object{
		"children":   []interface{}{},
		"name":       name,
		"sourceTree": "<group>",
	})
	g.appendChild(id)
	return &Group{p: g.p, ID: id}
}

// NewStaticLibrary adds a reference to a built static library named name
// (e.g. libPods.a) to the group.
func (g *Group) NewStaticLibrary(name string) *FileReference {
	id := g.p.addObject(isaFileReference, object{
		"explicitFileType": "archive.ar",
		"includeInIndex":   "0",
		"path":             name,
		"sourceTree":       "BUILT_PRODUCTS_DIR",
	})
	g.appendChild(id)
	return &FileReference{p: g.p, ID: id}
}

func (g *Group) appendChild(id string) {
	g.obj().appendToList("children", id)
}
