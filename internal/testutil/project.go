package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// LitEffect is a small effect description with one technique and one
// pass declaring a matrix and a float parameter.
const LitEffect = `effect: technique: Main: pass: P0: {
	shaders: {vertex: "lit.vert", fragment: "lit.frag"}
	parameters: {World: "mat4", Intensity: "float"}
}
`

// Shader is placeholder shader source. Only its presence is checked.
const Shader = "void main() {}\n"

// WriteFiles writes files below root, creating directories as needed.
// Keys are slash-separated relative paths.
func WriteFiles(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

// LitFiles returns the files of a project named Game holding
// effects/lit.fx.cue and its shaders.
func LitFiles() map[string]string {
	return map[string]string{
		"content.yaml":       "name: Game\nassets:\n  - effects/*.fx.cue\n",
		"effects/lit.fx.cue": LitEffect,
		"effects/lit.vert":   Shader,
		"effects/lit.frag":   Shader,
	}
}

// LitProject writes LitFiles into a temp directory and returns the root.
func LitProject(t testing.TB) string {
	t.Helper()
	root := t.TempDir()
	WriteFiles(t, root, LitFiles())
	return root
}
