// Package project loads content project manifests.
//
// A manifest (content.yaml) names the project, the namespace generated
// types are placed in, where outputs and intermediate state go, and which
// source files are assets:
//
//	name: Game
//	namespace: Game.Content
//	output: bin/Content
//	intermediate: obj
//	assets:
//	  - effects/*.fx.cue
//	  - file: effects/water.fx.toml
//	    params:
//	      debug: "true"
//
// Asset entries are project-relative paths or glob patterns; a mapping
// entry attaches processor parameters to one file.
package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the manifest file name looked up in a project directory.
const FileName = "content.yaml"

const (
	defaultOutput       = "bin"
	defaultIntermediate = "obj"
)

// ErrNoAssets is returned when a manifest matches no files.
var ErrNoAssets = errors.New("project has no assets")

// Manifest is the on-disk form of content.yaml.
type Manifest struct {
	Name         string       `yaml:"name"`
	Namespace    string       `yaml:"namespace,omitempty"`
	Output       string       `yaml:"output,omitempty"`
	Intermediate string       `yaml:"intermediate,omitempty"`
	Assets       []AssetEntry `yaml:"assets"`
}

// AssetEntry is one item of the assets list: either a bare path/glob or
// a mapping with a file and its parameters.
type AssetEntry struct {
	File   string            `yaml:"file"`
	Params map[string]string `yaml:"params,omitempty"`
}

// UnmarshalYAML accepts a scalar as shorthand for {file: <scalar>}.
func (a *AssetEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		a.File = node.Value
		return nil
	}
	type plain AssetEntry
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*a = AssetEntry(p)
	return nil
}

// Asset is a resolved asset.
type Asset struct {
	// BuildFile is the slash-separated path relative to the project root.
	// It is the key for generated types, markers and cache entries.
	BuildFile string
	// Path is the absolute source path.
	Path   string
	Params map[string]string
}

// Project is a loaded manifest with absolute directories and expanded
// assets, sorted by build-file.
type Project struct {
	Name            string
	Namespace       string
	Root            string
	OutputDir       string
	IntermediateDir string
	Assets          []Asset
}

// Load reads the manifest at path, which may be the manifest itself or
// its directory.
func Load(path string) (*Project, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}

	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", abs, err)
	}

	return Resolve(&m, filepath.Dir(abs))
}

// Resolve validates m and expands it against root.
func Resolve(m *Manifest, root string) (*Project, error) {
	if m.Name == "" {
		return nil, fmt.Errorf("invalid project: name is required")
	}

	p := &Project{
		Name:            m.Name,
		Namespace:       m.Namespace,
		Root:            root,
		OutputDir:       resolveDir(root, m.Output, defaultOutput),
		IntermediateDir: resolveDir(root, m.Intermediate, defaultIntermediate),
	}
	if p.Namespace == "" {
		p.Namespace = m.Name
	}

	seen := make(map[string]int)
	for i, entry := range m.Assets {
		if entry.File == "" {
			return nil, fmt.Errorf("invalid project: asset %d has no file", i)
		}
		matches, err := expand(root, entry.File)
		if err != nil {
			return nil, fmt.Errorf("invalid project: asset %q: %w", entry.File, err)
		}
		for _, abs := range matches {
			rel, err := filepath.Rel(root, abs)
			if err != nil {
				return nil, err
			}
			buildFile := filepath.ToSlash(rel)
			if strings.HasPrefix(buildFile, "../") {
				return nil, fmt.Errorf("invalid project: asset %q is outside the project", entry.File)
			}
			asset := Asset{BuildFile: buildFile, Path: abs, Params: entry.Params}
			// A later explicit entry overrides parameters from an earlier glob.
			if j, ok := seen[buildFile]; ok {
				p.Assets[j] = asset
				continue
			}
			seen[buildFile] = len(p.Assets)
			p.Assets = append(p.Assets, asset)
		}
	}
	if len(p.Assets) == 0 {
		return nil, ErrNoAssets
	}

	slices.SortFunc(p.Assets, func(a, b Asset) int {
		return strings.Compare(a.BuildFile, b.BuildFile)
	})
	return p, nil
}

// BuildFiles returns the build-file of every asset.
func (p *Project) BuildFiles() []string {
	files := make([]string, len(p.Assets))
	for i, a := range p.Assets {
		files[i] = a.BuildFile
	}
	return files
}

// Asset returns the asset for buildFile.
func (p *Project) Asset(buildFile string) (Asset, bool) {
	i := slices.IndexFunc(p.Assets, func(a Asset) bool { return a.BuildFile == buildFile })
	if i < 0 {
		return Asset{}, false
	}
	return p.Assets[i], true
}

// OutputPath returns where the content file for buildFile is written,
// replacing the source extension with ext.
func (p *Project) OutputPath(buildFile, ext string) string {
	base := filepath.FromSlash(buildFile)
	dir, name := filepath.Split(base)
	if i := strings.Index(name, "."); i > 0 {
		name = name[:i]
	}
	return filepath.Join(p.OutputDir, dir, name+ext)
}

// HostPath returns the host module image path.
func (p *Project) HostPath() string {
	return filepath.Join(p.IntermediateDir, "host.db")
}

func resolveDir(root, dir, def string) string {
	if dir == "" {
		dir = def
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}

func expand(root, pattern string) ([]string, error) {
	full := filepath.Join(root, filepath.FromSlash(pattern))
	if !strings.ContainsAny(pattern, "*?[") {
		if _, err := os.Stat(full); err != nil {
			return nil, err
		}
		return []string{full}, nil
	}
	matches, err := filepath.Glob(full)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			files = append(files, m)
		}
	}
	return files, nil
}
