package cli

import (
	"fmt"
	"path/filepath"

	"github.com/arnavsurve/podctl/internal/project"
	"github.com/arnavsurve/podctl/internal/ui"
	"github.com/arnavsurve/podctl/internal/workspace"
	"github.com/bitrise-io/go-utils/pathutil"
	"github.com/spf13/cobra"
)

func workspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Workspace introspection",
	}

	cmd.AddCommand(workspaceListCmd())

	return cmd
}

func workspaceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [PATH]",
		Short: "List the projects referenced by a workspace",
		Long: `List the projects referenced by an .xcworkspace. Without PATH the workspace
in the current directory is used.`,
		Example: `  podctl workspace list
  podctl workspace list App.xcworkspace`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				info, err := project.NewDetector().Detect(".")
				if err != nil || info.Type != project.ProjectTypeWorkspace {
					return fmt.Errorf("no workspace found in the current directory")
				}
				path = info.Path
			}

			ws, err := workspace.Open(path)
			if err != nil {
				return err
			}
			if !ws.Exists() {
				return fmt.Errorf("workspace %s does not exist", path)
			}

			renderer := ui.NewRendererTo(cmd.ErrOrStderr())
			renderer.Success("Workspace: %s", filepath.Base(ws.Path()))

			if len(ws.FileRefs()) == 0 {
				renderer.Info("No projects referenced")
				return nil
			}

			for _, ref := range ws.FileRefs() {
				if exists, _ := pathutil.IsPathExists(ref.Abs()); exists {
					renderer.Info("• %s", ref.Path)
				} else {
					renderer.Dim("• %s (missing)", ref.Path)
				}
			}
			return nil
		},
	}
}
