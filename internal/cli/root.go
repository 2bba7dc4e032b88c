package cli

import (
	"context"

	"github.com/arnavsurve/podctl/internal/process"
	"github.com/spf13/cobra"
)

var verbose bool

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "podctl",
		Short: "Integrate a Pods project into your Xcode workspace",
		Long: `podctl wires a generated Pods project into your Xcode workspace and links
the Pods libraries into your app targets.

Common workflows:
  podctl integrate            Read Podctl.yaml and integrate every target
  podctl integrate -w         Same, but re-integrate when the manifest changes
  podctl project info         Show the project and its linked libraries
  podctl workspace list       Show the projects referenced by the workspace`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			process.SetGlobalVerbose(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show underlying commands")

	cmd.AddCommand(integrateCmd())
	cmd.AddCommand(projectCmd())
	cmd.AddCommand(workspaceCmd())

	return cmd
}

func Execute(ctx context.Context, version string) error {
	rootCmd := newRootCmd()
	rootCmd.Version = version
	return rootCmd.ExecuteContext(ctx)
}
