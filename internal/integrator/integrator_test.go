package integrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arnavsurve/podctl/internal/manifest"
	"github.com/arnavsurve/podctl/internal/workspace"
	"github.com/arnavsurve/podctl/internal/xcodeproj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resourcesScript = "${SRCROOT}/Pods/Pods-resources.sh"

type warning struct {
	message string
	actions []string
}

type recorder struct {
	notices  []string
	warnings []warning
}

func (r *recorder) Notice(message string) { r.notices = append(r.notices, message) }

func (r *recorder) Warn(message string, actions []string) {
	r.warnings = append(r.warnings, warning{message: message, actions: actions})
}

// setupRoot copies the fixture project into a fresh root directory.
func setupRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	data, err := os.ReadFile(filepath.Join("testdata", "App.xcodeproj", xcodeproj.PBXProjFile))
	require.NoError(t, err)

	bundle := filepath.Join(root, "App.xcodeproj")
	require.NoError(t, os.MkdirAll(bundle, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bundle, xcodeproj.PBXProjFile), data, 0o644))
	return root
}

func testConfig(root string, r *recorder) Config {
	return Config{
		Root:            root,
		WorkspacePath:   filepath.Join(root, "App.xcworkspace"),
		PodsProjectPath: filepath.Join(root, "Pods", "Pods.xcodeproj"),
		Reporter:        r,
	}
}

func definition(root, name string) *manifest.TargetDefinition {
	label := "Pods"
	if name != manifest.DefaultName {
		label = "Pods-" + name
	}
	return &manifest.TargetDefinition{
		Name:                    name,
		Label:                   label,
		UserProjectPath:         filepath.Join(root, "App.xcodeproj"),
		XCConfigPath:            "Pods/" + label + ".xcconfig",
		CopyResourcesScriptPath: "${SRCROOT}/Pods/" + label + "-resources.sh",
		XCConfig: map[string]string{
			"OTHER_LDFLAGS":       "-ObjC",
			"HEADER_SEARCH_PATHS": "${PODS_ROOT}/Headers",
		},
		Dependencies: []string{"AFNetworking"},
	}
}

func reopen(t *testing.T, root string) *xcodeproj.Project {
	t.Helper()
	p, err := xcodeproj.Open(filepath.Join(root, "App.xcodeproj"))
	require.NoError(t, err)
	return p
}

func readProject(t *testing.T, root string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, "App.xcodeproj", xcodeproj.PBXProjFile))
	require.NoError(t, err)
	return data
}

func TestTargetIntegrator_DefaultDefinitionUsesFirstTarget(t *testing.T) {
	root := setupRoot(t)
	ti := NewTargetIntegrator(testConfig(root, &recorder{}), definition(root, manifest.DefaultName))

	targets, err := ti.Targets()
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "App", targets[0].Name())
}

func TestTargetIntegrator_Integrate(t *testing.T) {
	root := setupRoot(t)
	require.NoError(t, NewTargetIntegrator(testConfig(root, &recorder{}), definition(root, manifest.DefaultName)).Integrate())

	p := reopen(t, root)
	app := p.Target("App")

	assert.Equal(t, []string{"UIKit.framework", "libPods.a"}, app.LinkedLibraryNames())

	for _, config := range app.BuildConfigurations() {
		ref := config.BaseConfigurationReference()
		require.NotNil(t, ref, config.Name())
		assert.Equal(t, "Pods/Pods.xcconfig", ref.Path())
		assert.Equal(t, "SOURCE_ROOT", ref.SourceTree())
	}

	scripts := app.ShellScriptBuildPhases()
	require.Len(t, scripts, 1)
	assert.Equal(t, CopyResourcesPhaseName, scripts[0].Name())
	assert.Equal(t, `"`+resourcesScript+`"`+"\n", scripts[0].ShellScript())

	phases := app.BuildPhases()
	assert.Equal(t, scripts[0].ID, phases[len(phases)-1].ID, "script phase is appended last")

	lib := p.FileReference("libPods.a")
	require.NotNil(t, lib)
	assert.Equal(t, "BUILT_PRODUCTS_DIR", lib.SourceTree())

	// The second target was not selected.
	assert.Empty(t, p.Target("AppTests").ShellScriptBuildPhases())
}

func TestTargetIntegrator_RerunLeavesProjectUntouched(t *testing.T) {
	root := setupRoot(t)
	cfg := testConfig(root, &recorder{})
	require.NoError(t, NewTargetIntegrator(cfg, definition(root, manifest.DefaultName)).Integrate())

	path := filepath.Join(root, "App.xcodeproj", xcodeproj.PBXProjFile)
	before := readProject(t, root)
	infoBefore, err := os.Stat(path)
	require.NoError(t, err)

	again := NewTargetIntegrator(cfg, definition(root, manifest.DefaultName))
	targets, err := again.Targets()
	require.NoError(t, err)
	assert.Empty(t, targets)
	require.NoError(t, again.Integrate())

	infoAfter, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before, readProject(t, root))
	assert.Equal(t, infoBefore.ModTime(), infoAfter.ModTime())

	app := reopen(t, root).Target("App")
	assert.Len(t, app.ShellScriptBuildPhases(), 1)
}

func TestTargetIntegrator_NamedDefinition(t *testing.T) {
	root := setupRoot(t)
	ti := NewTargetIntegrator(testConfig(root, &recorder{}), definition(root, "AppTests"))

	targets, err := ti.Targets()
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "AppTests", targets[0].Name())
}

func TestTargetIntegrator_UnknownTargetName(t *testing.T) {
	root := setupRoot(t)
	ti := NewTargetIntegrator(testConfig(root, &recorder{}), definition(root, "Widgets"))

	_, err := ti.Targets()
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "Widgets")
}

func TestTargetIntegrator_LinkWithTakesPrecedence(t *testing.T) {
	root := setupRoot(t)
	def := definition(root, "AppTests")
	def.LinkWith = []string{"AppTests", "App", "Missing"}

	targets, err := NewTargetIntegrator(testConfig(root, &recorder{}), def).Targets()
	require.NoError(t, err)

	var names []string
	for _, target := range targets {
		names = append(names, target.Name())
	}
	assert.Equal(t, []string{"App", "AppTests"}, names, "project order, unknown names ignored")
}

func TestTargetIntegrator_ProxyDoesNotCountAsLinked(t *testing.T) {
	root := setupRoot(t)
	def := definition(root, manifest.DefaultName)
	def.LinkWith = []string{"AppTests"}

	ti := NewTargetIntegrator(testConfig(root, &recorder{}), def)
	targets, err := ti.Targets()
	require.NoError(t, err)
	require.Len(t, targets, 1)

	require.NoError(t, ti.Integrate())
	names := reopen(t, root).Target("AppTests").LinkedLibraryNames()
	assert.Equal(t, []string{"libPods.a", "libPods.a"}, names)
}

func TestTargetIntegrator_MissingProjectPath(t *testing.T) {
	root := setupRoot(t)
	def := definition(root, manifest.DefaultName)
	def.UserProjectPath = ""

	err := NewTargetIntegrator(testConfig(root, &recorder{}), def).Integrate()
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "xcodeproj")
}

func TestTargetIntegrator_ProjectFileMissing(t *testing.T) {
	root := setupRoot(t)
	def := definition(root, manifest.DefaultName)
	def.UserProjectPath = filepath.Join(root, "Gone.xcodeproj")

	err := NewTargetIntegrator(testConfig(root, &recorder{}), def).Integrate()
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "Gone.xcodeproj")
}

func TestTargetIntegrator_EmptyProject(t *testing.T) {
	root := t.TempDir()
	bundle := filepath.Join(root, "Empty.xcodeproj")
	require.NoError(t, os.MkdirAll(bundle, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bundle, xcodeproj.PBXProjFile), []byte(`// !$*UTF8*$!
{
	objects = {
		AA = { isa = PBXProject; mainGroup = BB; targets = ( ); };
		BB = { isa = PBXGroup; children = ( ); sourceTree = "<group>"; };
	};
	rootObject = AA;
}
`), 0o644))

	def := definition(root, manifest.DefaultName)
	def.UserProjectPath = bundle

	_, err := NewTargetIntegrator(testConfig(root, &recorder{}), def).Targets()
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "no targets")
}

func TestTargetIntegrator_WarnsOncePerOverriddenSetting(t *testing.T) {
	root := setupRoot(t)
	rec := &recorder{}

	def := definition(root, manifest.DefaultName)
	def.XCConfig["PRODUCT_NAME"] = "Pods"

	require.NoError(t, NewTargetIntegrator(testConfig(root, rec), def).AddXCConfigBaseConfiguration())

	require.Len(t, rec.warnings, 2)
	// OTHER_LDFLAGS keeps $(inherited) in Release, so only Debug overrides it.
	assert.Equal(t, "The target `App [Debug]` overrides the `OTHER_LDFLAGS` build setting defined in `Pods/Pods.xcconfig`.", rec.warnings[0].message)
	assert.Equal(t, "The target `App [Debug - Release]` overrides the `PRODUCT_NAME` build setting defined in `Pods/Pods.xcconfig`.", rec.warnings[1].message)
	assert.Equal(t, []string{"Use the `$(inherited)` flag, or", "Remove the build settings from the target."}, rec.warnings[0].actions)
}

func TestTargetIntegrator_WarningsIgnoreSilent(t *testing.T) {
	root := setupRoot(t)
	rec := &recorder{}
	cfg := testConfig(root, rec)
	cfg.Silent = true

	require.NoError(t, NewTargetIntegrator(cfg, definition(root, manifest.DefaultName)).AddXCConfigBaseConfiguration())
	assert.Len(t, rec.warnings, 1)
}

func TestTargetIntegrator_StepsDoNotDeduplicate(t *testing.T) {
	root := setupRoot(t)
	ti := NewTargetIntegrator(testConfig(root, &recorder{}), definition(root, manifest.DefaultName))

	require.NoError(t, ti.AddCopyResourcesScriptPhase())
	require.NoError(t, ti.AddCopyResourcesScriptPhase())
	require.NoError(t, ti.AddPodsLibrary())
	require.NoError(t, ti.AddPodsLibrary())

	proj, err := ti.UserProject()
	require.NoError(t, err)
	app := proj.Target("App")
	assert.Len(t, app.ShellScriptBuildPhases(), 2)
	assert.Equal(t, []string{"UIKit.framework", "libPods.a", "libPods.a"}, app.LinkedLibraryNames())
}

func TestTargetIntegrator_ReusesXCConfigReference(t *testing.T) {
	root := setupRoot(t)
	def := definition(root, manifest.DefaultName)
	def.LinkWith = []string{"App", "AppTests"}
	ti := NewTargetIntegrator(testConfig(root, &recorder{}), def)

	require.NoError(t, ti.AddXCConfigBaseConfiguration())

	proj, err := ti.UserProject()
	require.NoError(t, err)
	ids := map[string]bool{}
	for _, target := range proj.Targets() {
		for _, config := range target.BuildConfigurations() {
			ids[config.BaseConfigurationReference().ID] = true
		}
	}
	assert.Len(t, ids, 1)
}

func TestWorkspaceIntegrator_CreatesWorkspace(t *testing.T) {
	root := setupRoot(t)
	rec := &recorder{}
	cfg := testConfig(root, rec)

	require.NoError(t, NewWorkspaceIntegrator(cfg).Integrate([]*manifest.TargetDefinition{definition(root, manifest.DefaultName)}))

	ws, err := workspace.Open(cfg.WorkspacePath)
	require.NoError(t, err)
	assert.True(t, ws.Exists())
	assert.Equal(t, []string{"Pods/Pods.xcodeproj", "App.xcodeproj"}, ws.Projects())
	assert.Equal(t, []string{"From now on use `App.xcworkspace`."}, rec.notices)

	assert.Contains(t, reopen(t, root).Target("App").LinkedLibraryNames(), "libPods.a")
}

func TestWorkspaceIntegrator_ExistingWorkspace(t *testing.T) {
	root := setupRoot(t)
	rec := &recorder{}
	cfg := testConfig(root, rec)

	existing := workspace.New(cfg.WorkspacePath)
	existing.Add("App.xcodeproj")
	existing.Add("Other/Other.xcodeproj")
	require.NoError(t, existing.Save())

	require.NoError(t, NewWorkspaceIntegrator(cfg).Integrate([]*manifest.TargetDefinition{definition(root, manifest.DefaultName)}))

	ws, err := workspace.Open(cfg.WorkspacePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"App.xcodeproj", "Other/Other.xcodeproj", "Pods/Pods.xcodeproj"}, ws.Projects())
	assert.Empty(t, rec.notices)
}

func TestWorkspaceIntegrator_OverlappingExistingEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries func(root string) string
		want    []string
	}{
		{
			name: "absolute user project",
			entries: func(root string) string {
				return `<FileRef location="absolute:` + filepath.ToSlash(filepath.Join(root, "App.xcodeproj")) + `"/>`
			},
			want: []string{"App.xcodeproj", "Pods/Pods.xcodeproj"},
		},
		{
			name: "container pods project",
			entries: func(string) string {
				return `<FileRef location="container:Pods/Pods.xcodeproj"/>`
			},
			want: []string{"Pods/Pods.xcodeproj", "App.xcodeproj"},
		},
		{
			name: "pods project nested in group",
			entries: func(string) string {
				return `<Group location="group:Pods"><FileRef location="group:Pods.xcodeproj"/></Group>`
			},
			want: []string{"Pods/Pods.xcodeproj", "App.xcodeproj"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := setupRoot(t)
			cfg := testConfig(root, &recorder{})
			contents := `<?xml version="1.0" encoding="UTF-8"?><Workspace version="1.0">` + tt.entries(root) + `</Workspace>`
			require.NoError(t, os.MkdirAll(cfg.WorkspacePath, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(cfg.WorkspacePath, workspace.ContentsFile), []byte(contents), 0o644))

			require.NoError(t, NewWorkspaceIntegrator(cfg).Integrate([]*manifest.TargetDefinition{definition(root, manifest.DefaultName)}))

			ws, err := workspace.Open(cfg.WorkspacePath)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ws.Projects())
			assert.Len(t, ws.FileRefs(), 2)
		})
	}
}

func TestWorkspaceIntegrator_KeepsGroupsAndSelfReference(t *testing.T) {
	root := setupRoot(t)
	cfg := testConfig(root, &recorder{})
	contents := `<?xml version="1.0" encoding="UTF-8"?><Workspace version="1.0">` +
		`<Group location="group:Libs"><FileRef location="group:Lib.xcodeproj"/></Group>` +
		`<FileRef location="self:"/></Workspace>`
	require.NoError(t, os.MkdirAll(cfg.WorkspacePath, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.WorkspacePath, workspace.ContentsFile), []byte(contents), 0o644))

	require.NoError(t, NewWorkspaceIntegrator(cfg).Integrate([]*manifest.TargetDefinition{definition(root, manifest.DefaultName)}))

	data, err := os.ReadFile(filepath.Join(cfg.WorkspacePath, workspace.ContentsFile))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `<Group location="group:Libs">`)
	assert.Contains(t, out, `location="self:"`)

	ws, err := workspace.Open(cfg.WorkspacePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Libs/Lib.xcodeproj", "Pods/Pods.xcodeproj", "App.xcodeproj"}, ws.Projects())
}

func TestWorkspaceIntegrator_SilentSuppressesNotice(t *testing.T) {
	root := setupRoot(t)
	rec := &recorder{}
	cfg := testConfig(root, rec)
	cfg.Silent = true

	require.NoError(t, NewWorkspaceIntegrator(cfg).Integrate([]*manifest.TargetDefinition{definition(root, manifest.DefaultName)}))
	assert.Empty(t, rec.notices)
}

func TestWorkspaceIntegrator_NoWorkspacePath(t *testing.T) {
	root := setupRoot(t)
	cfg := testConfig(root, &recorder{})
	cfg.WorkspacePath = ""

	err := NewWorkspaceIntegrator(cfg).Integrate([]*manifest.TargetDefinition{definition(root, manifest.DefaultName)})
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "workspace")
}

func TestWorkspaceIntegrator_SkipsEmptyDefinitions(t *testing.T) {
	root := setupRoot(t)
	cfg := testConfig(root, &recorder{})

	empty := definition(root, manifest.DefaultName)
	empty.Dependencies = nil
	other := definition(root, "Other")
	other.UserProjectPath = filepath.Join(root, "Other", "Other.xcodeproj")
	other.Dependencies = nil

	before := readProject(t, root)
	require.NoError(t, NewWorkspaceIntegrator(cfg).Integrate([]*manifest.TargetDefinition{empty, other}))
	assert.Equal(t, before, readProject(t, root))

	ws, err := workspace.Open(cfg.WorkspacePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pods/Pods.xcodeproj"}, ws.Projects())
}

func TestWorkspaceIntegrator_StopsAtFirstFailure(t *testing.T) {
	root := setupRoot(t)
	cfg := testConfig(root, &recorder{})

	ok := definition(root, manifest.DefaultName)
	bad := definition(root, "Widgets")
	after := definition(root, "AppTests")

	err := NewWorkspaceIntegrator(cfg).Integrate([]*manifest.TargetDefinition{ok, bad, after})
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "integrate Widgets")

	p := reopen(t, root)
	assert.Contains(t, p.Target("App").LinkedLibraryNames(), "libPods.a")
	assert.NotContains(t, p.Target("AppTests").LinkedLibraryNames(), "libPods-AppTests.a")
}

func TestWorkspaceIntegrator_ProjectPathsDeduplicated(t *testing.T) {
	root := setupRoot(t)
	w := NewWorkspaceIntegrator(testConfig(root, &recorder{}))

	a := definition(root, manifest.DefaultName)
	b := definition(root, "AppTests")
	b.UserProjectPath = filepath.Join(root, ".", "App.xcodeproj")

	paths := w.ProjectPaths([]*manifest.TargetDefinition{a, b})
	assert.Equal(t, []string{filepath.Join(root, "Pods", "Pods.xcodeproj"), filepath.Join(root, "App.xcodeproj")}, paths)
}

func TestConfigurationError_Message(t *testing.T) {
	err := &ConfigurationError{Message: "Could not find it.", Remediation: "Look harder."}
	assert.Equal(t, "Could not find it. Look harder.", err.Error())
	assert.Equal(t, "bare", (&ConfigurationError{Message: "bare"}).Error())
}
