// Package workspace reads and writes Xcode workspace documents
// (contents.xcworkspacedata).
//
// The parsed document is kept as is: groups, self references, and entries of
// unknown kinds are written back untouched and new projects are appended as
// top-level FileRef elements.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/bitrise-io/go-utils/pathutil"
)

const (
	// Ext is the extension of a workspace bundle.
	Ext = ".xcworkspace"
	// ContentsFile is the document inside a workspace bundle.
	ContentsFile = "contents.xcworkspacedata"

	defaultLocationType = "group"
)

// FileRef is one file entry of a workspace.
type FileRef struct {
	// LocationType is the part before the colon: group, container, absolute.
	LocationType string
	// Path is the membership key: the entry's resolved path relative to the
	// workspace root, slash-separated.
	Path string

	location string
	abs      string
}

// Location returns the location attribute as written in the document.
func (r FileRef) Location() string { return r.location }

// Abs returns the entry's resolved absolute path.
func (r FileRef) Abs() string { return r.abs }

// Workspace is an xcworkspacedata document with its file entries resolved
// to absolute paths.
type Workspace struct {
	path      string
	container string
	root      string
	exists    bool

	doc  *etree.Document
	body *etree.Element
	refs []FileRef
}

// New returns an empty workspace that will be written to path.
func New(path string) *Workspace {
	container := filepath.Dir(path)
	if abs, err := filepath.Abs(container); err == nil {
		container = abs
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	body := doc.CreateElement("Workspace")
	body.CreateAttr("version", "1.0")

	return &Workspace{
		path:      path,
		container: container,
		root:      container,
		doc:       doc,
		body:      body,
	}
}

// Open loads the workspace at path. A missing document yields an empty
// workspace whose Exists reports false.
func Open(path string) (*Workspace, error) {
	contents := filepath.Join(path, ContentsFile)

	exists, err := pathutil.IsPathExists(contents)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", contents, err)
	}
	ws := New(path)
	if !exists {
		return ws, nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(contents); err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}

	body := doc.SelectElement("Workspace")
	if body == nil {
		return nil, fmt.Errorf("read workspace %s: no Workspace element", path)
	}

	ws.doc = doc
	ws.body = body
	ws.exists = true
	ws.collect(body, ws.container)
	return ws, nil
}

// collect records the FileRefs under el, resolving group locations against
// dir, the directory of the enclosing group.
func (w *Workspace) collect(el *etree.Element, dir string) {
	for _, child := range el.ChildElements() {
		location := child.SelectAttrValue("location", "")
		switch child.Tag {
		case "Group":
			groupDir, ok := w.resolve(dir, location)
			if !ok {
				groupDir = dir
			}
			w.collect(child, groupDir)
		case "FileRef":
			kind, p := splitLocation(location)
			if p == "" {
				continue
			}
			abs, ok := w.resolve(dir, location)
			if !ok {
				continue
			}
			w.refs = append(w.refs, FileRef{LocationType: kind, location: location, abs: abs})
		}
	}
}

// resolve returns the absolute path a location names. Kinds that do not
// name a file on disk (self, developer) are not resolved.
func (w *Workspace) resolve(dir, location string) (string, bool) {
	kind, p := splitLocation(location)
	switch kind {
	case "group":
		if filepath.IsAbs(p) {
			return filepath.Clean(p), true
		}
		return filepath.Join(dir, p), true
	case "container":
		return filepath.Join(w.container, p), true
	case "absolute":
		return filepath.Clean(p), true
	default:
		return "", false
	}
}

func splitLocation(location string) (string, string) {
	kind, p, found := strings.Cut(location, ":")
	if !found {
		return defaultLocationType, location
	}
	return kind, p
}

// SetRoot sets the directory membership keys are relative to. It defaults
// to the directory containing the workspace bundle.
func (w *Workspace) SetRoot(root string) {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	w.root = root
}

// Path returns the workspace bundle path.
func (w *Workspace) Path() string { return w.path }

// Exists reports whether the document existed on disk when it was opened.
func (w *Workspace) Exists() bool { return w.exists }

// Projects returns the membership keys of the entries in document order,
// each once.
func (w *Workspace) Projects() []string {
	refs := w.FileRefs()
	paths := make([]string, 0, len(refs))
	for _, r := range refs {
		paths = append(paths, r.Path)
	}
	return paths
}

// FileRefs returns the resolvable entries in document order. Entries that
// resolve to an already listed path are omitted.
func (w *Workspace) FileRefs() []FileRef {
	seen := make(map[string]bool, len(w.refs))
	refs := make([]FileRef, 0, len(w.refs))
	for _, r := range w.refs {
		if seen[r.abs] {
			continue
		}
		seen[r.abs] = true
		r.Path = w.key(r.abs)
		refs = append(refs, r)
	}
	return refs
}

// Contains reports whether path, absolute or relative to the root, is
// already referenced in any location form.
func (w *Workspace) Contains(path string) bool {
	abs := w.absolute(path)
	for _, r := range w.refs {
		if r.abs == abs {
			return true
		}
	}
	return false
}

// Add appends path, absolute or relative to the root, as a top-level
// group reference. It returns false when the path is already present.
func (w *Workspace) Add(path string) bool {
	if w.Contains(path) {
		return false
	}

	abs := w.absolute(path)
	kind, rel := defaultLocationType, abs
	if r, err := filepath.Rel(w.container, abs); err == nil {
		rel = Normalize(r)
	} else {
		kind = "absolute"
	}
	location := kind + ":" + rel

	w.body.CreateElement("FileRef").CreateAttr("location", location)
	w.refs = append(w.refs, FileRef{LocationType: kind, location: location, abs: abs})
	return true
}

// Save writes the document, overwriting any existing file.
func (w *Workspace) Save() error {
	w.doc.Indent(3)

	if err := os.MkdirAll(w.path, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", w.path, err)
	}
	if err := w.doc.WriteToFile(filepath.Join(w.path, ContentsFile)); err != nil {
		return fmt.Errorf("write workspace: %w", err)
	}

	w.exists = true
	return nil
}

func (w *Workspace) absolute(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(w.root, path)
}

func (w *Workspace) key(abs string) string {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return Normalize(abs)
	}
	return Normalize(rel)
}

// Normalize returns the canonical form used for membership: cleaned and
// slash-separated.
func Normalize(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}
