package cli

import (
	"encoding/json"
	"fmt"

	"github.com/arnavsurve/podctl/internal/project"
	"github.com/arnavsurve/podctl/internal/ui"
	"github.com/spf13/cobra"
)

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project introspection",
		Long:  `Inspect the Xcode project or workspace in the current directory.`,
	}

	cmd.AddCommand(projectInfoCmd())

	return cmd
}

func projectInfoCmd() *cobra.Command {
	var (
		jsonOut bool
		dir     string
	)

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show project information",
		Long: `Detect the workspace, project, or manifest in the directory and list every
target together with the libraries it links.`,
		Example: `  podctl project info
  podctl project info --json
  podctl project info --dir ios`,
		RunE: func(cmd *cobra.Command, args []string) error {
			detector := project.NewDetector()

			info, err := detector.Detect(dir)
			if err != nil {
				return fmt.Errorf("no project found: %w", err)
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			renderer := ui.NewRendererTo(cmd.ErrOrStderr())
			renderer.Success("Project: %s", info.Name)
			renderer.Info("Type: %s", info.Type)
			renderer.Info("Path: %s", info.Path)

			if len(info.Projects) > 0 {
				renderer.Info("")
				renderer.Info("Projects:")
				for _, p := range info.Projects {
					renderer.Info("  • %s", p)
				}
			}

			renderer.RenderTargets(info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to inspect")

	return cmd
}
