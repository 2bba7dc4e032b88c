package project

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arnavsurve/podctl/internal/workspace"
	"github.com/arnavsurve/podctl/internal/xcodeproj"
	"github.com/bitrise-io/go-utils/pathutil"
)

// Manifest file names recognised as a Pods setup
var manifestNames = []string{"Podctl.yaml", "Podfile"}

// Detector finds and analyzes Xcode projects
type Detector struct{}

// NewDetector creates a new project Detector
func NewDetector() *Detector {
	return &Detector{}
}

// Detect finds a project in the given directory
func (d *Detector) Detect(dir string) (*ProjectInfo, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	// Check for project types in order of preference
	// 1. Workspace (may contain multiple projects)
	if info, err := d.detectWorkspace(absDir); err == nil {
		return info, nil
	}

	// 2. Xcode project
	if info, err := d.detectXcodeProj(absDir); err == nil {
		return info, nil
	}

	// 3. Manifest without an integrated project yet
	if info, err := d.detectManifest(absDir); err == nil {
		return info, nil
	}

	return nil, fmt.Errorf("no Xcode project found in %s", dir)
}

// UserProjects returns the .xcodeproj bundles directly inside dir, sorted
func (d *Detector) UserProjects(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+XcodeProjExt))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// detectWorkspace looks for .xcworkspace bundles
func (d *Detector) detectWorkspace(dir string) (*ProjectInfo, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+XcWorkspaceExt))
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("no workspace found")
	}

	ws, err := workspace.Open(matches[0])
	if err != nil {
		return nil, err
	}

	info := &ProjectInfo{
		Type:     ProjectTypeWorkspace,
		Path:     ws.Path(),
		Name:     strings.TrimSuffix(filepath.Base(ws.Path()), XcWorkspaceExt),
		Projects: ws.Projects(),
	}

	// Member projects that are missing or unreadable are skipped
	for _, ref := range ws.FileRefs() {
		if proj, err := xcodeproj.Open(ref.Abs()); err == nil {
			info.Targets = append(info.Targets, targetsOf(proj, ref.Path)...)
		}
	}

	return info, nil
}

// detectXcodeProj looks for .xcodeproj bundles
func (d *Detector) detectXcodeProj(dir string) (*ProjectInfo, error) {
	matches, err := d.UserProjects(dir)
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("no xcodeproj found")
	}

	proj, err := xcodeproj.Open(matches[0])
	if err != nil {
		return nil, err
	}

	return &ProjectInfo{
		Type:    ProjectTypeXcodeProj,
		Path:    proj.Path(),
		Name:    proj.Name(),
		Targets: targetsOf(proj, filepath.Base(proj.Path())),
	}, nil
}

// detectManifest looks for a Podctl.yaml or Podfile
func (d *Detector) detectManifest(dir string) (*ProjectInfo, error) {
	for _, name := range manifestNames {
		pth := filepath.Join(dir, name)
		if exists, err := pathutil.IsPathExists(pth); err != nil || !exists {
			continue
		}
		return &ProjectInfo{
			Type: ProjectTypePodfile,
			Path: pth,
			Name: filepath.Base(dir),
		}, nil
	}
	return nil, fmt.Errorf("no manifest found")
}

func targetsOf(proj *xcodeproj.Project, label string) []Target {
	var targets []Target
	for _, t := range proj.Targets() {
		targets = append(targets, Target{
			Project:     label,
			Name:        t.Name(),
			ProductType: strings.TrimPrefix(t.ProductType(), "com.apple.product-type."),
			Libraries:   t.LinkedLibraryNames(),
		})
	}
	return targets
}
