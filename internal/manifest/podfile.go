package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/gjson"
)

// podfileRootName is the name CocoaPods gives the outermost target definition.
const podfileRootName = "Pods"

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	RunSilent(ctx context.Context, name string, args []string) ([]byte, error)
}

// podfileNode is one entry of target_definitions in `pod ipc podfile-json` output.
type podfileNode struct {
	Name            string            `mapstructure:"name"`
	Exclusive       bool              `mapstructure:"exclusive"`
	UserProjectPath string            `mapstructure:"user_project_path"`
	LinkWith        []string          `mapstructure:"link_with"`
	XCConfig        map[string]string `mapstructure:"xcconfig"`
	Dependencies    []interface{}     `mapstructure:"dependencies"`
}

// LoadPodfile builds a manifest from a Podfile. A .json path is read as
// an already converted description; anything else is converted with
// `pod ipc podfile-json`.
func LoadPodfile(ctx context.Context, runner CommandRunner, path string, opts Options) (*Manifest, error) {
	if opts.Root == "" {
		opts.Root = filepath.Dir(path)
	}

	if filepath.Ext(path) == ".json" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading podfile description: %w", err)
		}
		return ParsePodfileJSON(data, opts)
	}

	data, err := runner.RunSilent(ctx, "pod", []string{"ipc", "podfile-json", path})
	if err != nil {
		return nil, fmt.Errorf("pod ipc podfile-json: %w", err)
	}
	return ParsePodfileJSON(data, opts)
}

// ParsePodfileJSON builds a manifest from a Podfile's JSON description.
// Nested definitions are flattened; children inherit the user project and,
// unless exclusive, the dependencies of their parent.
func ParsePodfileJSON(data []byte, opts Options) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidPodfile)
	}
	doc := gjson.ParseBytes(data)

	var decls []declaredDefinition
	var walkErr error

	var walk func(node gjson.Result, parent *declaredDefinition) bool
	walk = func(node gjson.Result, parent *declaredDefinition) bool {
		var n podfileNode
		if err := decodeNode(node.Value(), &n); err != nil {
			walkErr = fmt.Errorf("%w: %v", ErrInvalidPodfile, err)
			return false
		}

		decl := declaredDefinition{
			Name:     n.Name,
			Project:  n.UserProjectPath,
			LinkWith: n.LinkWith,
			XCConfig: n.XCConfig,
			Pods:     dependencyNames(n.Dependencies),
		}
		if parent == nil && (n.Name == podfileRootName || n.Name == "") {
			decl.Name = DefaultName
		}
		if parent != nil {
			if decl.Project == "" {
				decl.Project = parent.Project
			}
			if !n.Exclusive {
				decl.Pods = append(append([]string(nil), parent.Pods...), decl.Pods...)
			}
		}
		decls = append(decls, decl)

		node.Get("children").ForEach(func(_, child gjson.Result) bool {
			return walk(child, &decl)
		})
		return walkErr == nil
	}

	doc.Get("target_definitions").ForEach(func(_, node gjson.Result) bool {
		return walk(node, nil)
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return assemble(decls, doc.Get("workspace").String(), opts)
}

func decodeNode(input interface{}, out *podfileNode) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// dependencyNames extracts pod names from entries that are either a bare
// name or a {name: requirements} map.
func dependencyNames(deps []interface{}) []string {
	var names []string
	for _, d := range deps {
		switch v := d.(type) {
		case string:
			names = append(names, v)
		case map[string]interface{}:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			names = append(names, keys...)
		}
	}
	return names
}
