package project

import (
	"github.com/arnavsurve/podctl/internal/workspace"
	"github.com/arnavsurve/podctl/internal/xcodeproj"
)

// Bundle extensions
const (
	XcodeProjExt   = xcodeproj.Ext
	XcWorkspaceExt = workspace.Ext
)

// ProjectType represents the kind of project found in a directory
type ProjectType int

const (
	ProjectTypeUnknown ProjectType = iota
	ProjectTypeXcodeProj
	ProjectTypeWorkspace
	ProjectTypePodfile
)

func (t ProjectType) String() string {
	switch t {
	case ProjectTypeXcodeProj:
		return "xcodeproj"
	case ProjectTypeWorkspace:
		return "workspace"
	case ProjectTypePodfile:
		return "podfile"
	default:
		return "unknown"
	}
}

// MarshalText renders the type by name in JSON output
func (t ProjectType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ProjectInfo contains detected project information
type ProjectInfo struct {
	Type     ProjectType `json:"type"`
	Path     string      `json:"path"`
	Name     string      `json:"name"`
	Projects []string    `json:"projects,omitempty"` // workspace members
	Targets  []Target    `json:"targets,omitempty"`
}

// Target represents a build target in the project
type Target struct {
	Project     string   `json:"project"`
	Name        string   `json:"name"`
	ProductType string   `json:"product_type"` // app, framework, test, etc.
	Libraries   []string `json:"libraries,omitempty"`
}
