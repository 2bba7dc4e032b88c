// Package xcodeproj loads, edits, and saves the object graph of an Xcode
// project bundle (project.pbxproj).
package xcodeproj

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"howett.net/plist"
)

const (
	// Ext is the extension of a project bundle.
	Ext = ".xcodeproj"
	// PBXProjFile is the object graph file inside a project bundle.
	PBXProjFile = "project.pbxproj"

	fileHeader = "// !$*UTF8*$!\n"
)

// ErrMalformed is returned when a project file parses but lacks required structure.
var ErrMalformed = errors.New("malformed project file")

// Project is an in-memory project object graph.
type Project struct {
	path    string
	raw     map[string]interface{}
	objects map[string]interface{}
}

// Open reads the project bundle at path.
func Open(path string) (*Project, error) {
	data, err := os.ReadFile(filepath.Join(path, PBXProjFile))
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	p.path = path
	return p, nil
}

// Parse decodes project.pbxproj contents. The returned project has no path
// and must be written with SaveAs.
func Parse(data []byte) (*Project, error) {
	var raw map[string]interface{}
	if _, err := plist.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	objects, ok := raw["objects"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: no objects table", ErrMalformed)
	}

	p := &Project{raw: raw, objects: objects}
	root := p.root()
	if root == nil {
		return nil, fmt.Errorf("%w: rootObject is not a PBXProject", ErrMalformed)
	}
	if p.object(root.str("mainGroup")).isa() != isaGroup {
		return nil, fmt.Errorf("%w: project has no main group", ErrMalformed)
	}
	return p, nil
}

// Path returns the bundle path the project was opened from.
func (p *Project) Path() string { return p.path }

// Name returns the bundle name without extension.
func (p *Project) Name() string {
	return strings.TrimSuffix(filepath.Base(p.path), Ext)
}

// Dir returns the directory containing the bundle ($(SRCROOT)).
func (p *Project) Dir() string { return filepath.Dir(p.path) }

// Save writes the project back to the path it was opened from.
func (p *Project) Save() error {
	if p.path == "" {
		return fmt.Errorf("save project: no path")
	}
	return p.SaveAs(p.path)
}

// SaveAs writes the project bundle at path, overwriting any existing file.
func (p *Project) SaveAs(path string) error {
	data, err := p.Marshal()
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := os.WriteFile(filepath.Join(path, PBXProjFile), data, 0o644); err != nil {
		return fmt.Errorf("write project: %w", err)
	}

	p.path = path
	return nil
}

// Marshal encodes the object graph as an OpenStep property list.
func (p *Project) Marshal() ([]byte, error) {
	data, err := plist.MarshalIndent(p.raw, plist.OpenStepFormat, "\t")
	if err != nil {
		return nil, err
	}
	return append([]byte(fileHeader), append(data, '\n')...), nil
}

// Targets returns the project's targets in declaration order.
func (p *Project) Targets() []*Target {
	var targets []*Target
	for _, id := range stringList(p.root()["targets"]) {
		if p.object(id) == nil {
			continue
		}
		targets = append(targets, &Target{p: p, ID: id})
	}
	return targets
}

// Target returns the target with the given name, or nil.
func (p *Project) Target(name string) *Target {
	for _, t := range p.Targets() {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

// MainGroup returns the project's root group.
func (p *Project) MainGroup() *Group {
	return &Group{p: p, ID: stringValue(p.root()["mainGroup"])}
}

// FrameworksGroup returns the "Frameworks" child of the main group, creating
// it when absent.
func (p *Project) FrameworksGroup() *Group {
	main := p.MainGroup()
	if g := main.Group("Frameworks"); g != nil {
		return g
	}
	return main.NewGroup("Frameworks")
}

// FileReference returns the file reference whose path equals path, or nil.
// When several match, the one with the lowest identifier wins.
func (p *Project) FileReference(path string) *FileReference {
	ids := make([]string, 0, len(p.objects))
	for id := range p.objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		o := p.object(id)
		if o.isa() == isaFileReference && o.str("path") == path {
			return &FileReference{p: p, ID: id}
		}
	}
	return nil
}

// NewFileReference returns the file reference for path, creating it in the
// main group relative to the project directory when it does not exist.
func (p *Project) NewFileReference(path string) *FileReference {
	if ref := p.FileReference(path); ref != nil {
		return ref
	}

	fields := object{
		"path":       path,
		"sourceTree": "SOURCE_ROOT",
	}
	if base := filepath.Base(path); base != path {
		fields["name"] = base
	}
	if t := fileTypeForPath(path); t != "" {
		fields["lastKnownFileType"] = t
	}

	id := p.addObject(isaFileReference, fields)
	p.MainGroup().appendChild(id)
	return &FileReference{p: p, ID: id}
}

func (p *Project) root() object {
	o := p.object(stringValue(p.raw["rootObject"]))
	if o.isa() != isaProject {
		return nil
	}
	return o
}

func (p *Project) object(id string) object {
	if id == "" {
		return nil
	}
	return asObject(p.objects[id])
}

func (p *Project) addObject(isa string, fields object) string {
	id := p.newID()
	fields["isa"] = isa
	p.objects[id] = map[string]interface{}(fields)
	return id
}

// newID draws a 24 character identifier that is unused in the project.
func (p *Project) newID() string {
	for {
		u := uuid.New()
		id := strings.ToUpper(hex.EncodeToString(u[:12]))
		if _, taken := p.objects[id]; !taken {
			return id
		}
	}
}

func fileTypeForPath(path string) string {
	switch filepath.Ext(path) {
	case ".xcconfig":
		return "text.xcconfig"
	case ".a":
		return "archive.ar"
	case ".sh":
		return "text.script.sh"
	default:
		return ""
	}
}
