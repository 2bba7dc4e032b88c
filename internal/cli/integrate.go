package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/arnavsurve/podctl/internal/config"
	"github.com/arnavsurve/podctl/internal/integrator"
	"github.com/arnavsurve/podctl/internal/manifest"
	"github.com/arnavsurve/podctl/internal/process"
	"github.com/arnavsurve/podctl/internal/ui"
	"github.com/arnavsurve/podctl/internal/watcher"
	"github.com/spf13/cobra"
)

type integrateOptions struct {
	root      string
	manifest  string
	workspace string
	sandbox   string
	silent    bool
	watch     bool
}

func integrateCmd() *cobra.Command {
	var opts integrateOptions

	cmd := &cobra.Command{
		Use:   "integrate",
		Short: "Integrate the Pods project into the workspace and targets",
		Long: `Add the Pods project and every user project to the workspace, then link the
Pods library, the generated xcconfig, and the resource-copy script phase into
each target of the manifest.

The manifest is Podctl.yaml by default. A Podfile is converted with
'pod ipc podfile-json'; a .json file is read as already converted output.

Use -w/--watch to integrate again whenever the manifest or .podctl.toml changes.`,
		Example: `  podctl integrate
  podctl integrate --manifest Podfile
  podctl integrate --workspace Client.xcworkspace --silent
  podctl integrate -w`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer := ui.NewRendererTo(cmd.ErrOrStderr())

			root, err := filepath.Abs(opts.root)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd, root, opts)
			if err != nil {
				return err
			}

			if err := integrateOnce(cmd.Context(), renderer, root, cfg); err != nil {
				return err
			}

			if !opts.watch {
				return nil
			}
			return watchAndIntegrate(cmd, renderer, root, opts, cfg)
		},
	}

	cmd.Flags().StringVar(&opts.root, "root", ".", "Installation root")
	cmd.Flags().StringVarP(&opts.manifest, "manifest", "m", "", "Manifest file (Podctl.yaml, Podfile, or Podfile JSON)")
	cmd.Flags().StringVar(&opts.workspace, "workspace", "", "Workspace to create or update")
	cmd.Flags().StringVar(&opts.sandbox, "sandbox", "", "Directory holding the Pods project")
	cmd.Flags().BoolVar(&opts.silent, "silent", false, "Suppress notices")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Integrate again when the manifest changes")

	return cmd
}

// loadConfig reads .podctl.toml and applies the flags the user set.
func loadConfig(cmd *cobra.Command, root string, opts integrateOptions) (*config.Config, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("manifest") {
		cfg.Manifest = opts.manifest
	}
	if flags.Changed("workspace") {
		cfg.Workspace = opts.workspace
	}
	if flags.Changed("sandbox") {
		cfg.Sandbox = opts.sandbox
	}
	if flags.Changed("silent") {
		cfg.Silent = opts.silent
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func integrateOnce(ctx context.Context, renderer *ui.Renderer, root string, cfg *config.Config) error {
	m, err := loadManifest(ctx, renderer, manifestPath(root, cfg), manifest.Options{
		Root:      root,
		Sandbox:   cfg.Sandbox,
		Workspace: cfg.Workspace,
		Silent:    cfg.Silent,
	})
	if err != nil {
		return err
	}

	wi := integrator.NewWorkspaceIntegrator(integrator.ConfigFromManifest(m, renderer))
	if err := wi.Integrate(m.TargetDefinitions); err != nil {
		return err
	}

	count := 0
	for _, def := range m.TargetDefinitions {
		if !def.Empty() {
			count++
		}
	}
	renderer.Success("Integrated %d target definition(s) into %s", count, filepath.Base(m.WorkspacePath))
	return nil
}

func manifestPath(root string, cfg *config.Config) string {
	if filepath.IsAbs(cfg.Manifest) {
		return cfg.Manifest
	}
	return filepath.Join(root, cfg.Manifest)
}

// loadManifest picks the reader by file name: Podfile and *.json go through
// the Podfile description, anything else is YAML.
func loadManifest(ctx context.Context, renderer *ui.Renderer, path string, opts manifest.Options) (*manifest.Manifest, error) {
	base := filepath.Base(path)
	isJSON := strings.EqualFold(filepath.Ext(base), ".json")

	if base != "Podfile" && !isJSON {
		return manifest.Load(path, opts)
	}

	if !isJSON && !process.CommandExists("pod") {
		return nil, fmt.Errorf("pod command not found: install CocoaPods or pass the output of `pod ipc podfile-json` with --manifest")
	}

	renderer.StartSpinner("Reading %s", base)
	m, err := manifest.LoadPodfile(ctx, process.NewRunner(), path, opts)
	renderer.StopSpinner()
	return m, err
}

func watchAndIntegrate(cmd *cobra.Command, renderer *ui.Renderer, root string, opts integrateOptions, cfg *config.Config) error {
	ctx := cmd.Context()

	debounce := cfg.Debounce()
	if debounce <= 0 {
		debounce = 10 * time.Millisecond
	}

	w, err := watcher.New(debounce)
	if err != nil {
		return fmt.Errorf("watcher failed: %w", err)
	}
	defer w.Close()

	for _, path := range []string{manifestPath(root, cfg), filepath.Join(root, config.ConfigFile)} {
		if err := w.AddFile(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}

	changes := w.Watch(ctx)
	renderer.Dim("Watching for changes (Ctrl+C to stop)...")

	for {
		select {
		case <-ctx.Done():
			return nil

		case change, ok := <-changes:
			if !ok {
				return nil
			}

			renderer.Info("Changed: %s", filepath.Base(change.Path))

			next, err := loadConfig(cmd, root, opts)
			if err != nil {
				renderer.Error("Config: %v", err)
				continue
			}
			if err := integrateOnce(ctx, renderer, root, next); err != nil {
				renderer.Error("Integration failed: %v", err)
			}
		}
	}
}
