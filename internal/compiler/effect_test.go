package compiler

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contentpipe/internal/effect"
)

func wantLit() *effect.Content {
	elem := effect.Parameter{Name: "Bones[0]", Type: effect.TypeFloatMat4}
	return &effect.Content{
		Name: "lit",
		Techniques: []effect.Technique{
			{
				Name: "Main",
				Passes: []effect.Pass{
					{
						Name: "P0",
						Shaders: []effect.Shader{
							{Stage: effect.StageVertex, File: "lit.vert"},
							{Stage: effect.StageFragment, File: "lit.frag"},
						},
						Attributes: []effect.VertexAttribute{{Name: "position", Location: 0}, {Name: "normal", Location: 1}},
						Blend:      &effect.BlendState{Enabled: true, Source: "SrcAlpha", Destination: "InvSrcAlpha", Operation: "Add"},
						DepthStencil: &effect.DepthStencilState{
							DepthTest: true, DepthWrite: false, Function: "Less",
						},
						Parameters: []effect.Parameter{
							{Name: "World", Type: effect.TypeFloatMat4},
							{Name: "Intensity", Type: effect.TypeFloat},
							{Name: "Bones", Type: effect.TypeFloatMat4, Kind: effect.KindArray, Length: 4, Element: &elem},
							{Name: "Light", Type: effect.TypeStruct, Kind: effect.KindStruct, Fields: []effect.Parameter{
								{Name: "Color", Type: effect.TypeFloatVec3},
								{Name: "Power", Type: effect.TypeFloat},
							}},
						},
					},
					{
						Name:       "P1",
						Shaders:    []effect.Shader{{Stage: effect.StageVertex, File: "outline.vert"}},
						Rasterizer: &effect.RasterizerState{CullMode: "Front", FillMode: "Solid"},
						Parameters: []effect.Parameter{{Name: "World", Type: effect.TypeFloatMat4}},
					},
				},
			},
			{
				Name:   "Shadow",
				Passes: []effect.Pass{{Name: "Depth", Shaders: []effect.Shader{{Stage: effect.StageVertex, File: "shadow.vert"}}}},
			},
		},
	}
}

func TestCompileFileFormats(t *testing.T) {
	for _, file := range []string{"lit.fx.cue", "lit.fx.toml"} {
		t.Run(file, func(t *testing.T) {
			got, err := CompileFile(filepath.Join("testdata", file))
			require.NoError(t, err)
			assert.Equal(t, wantLit(), got)
		})
	}
}

func TestEffectName(t *testing.T) {
	tests := []struct{ path, want string }{
		{"effects/lit.fx.cue", "lit"},
		{"a/b/sky.fx.toml", "sky"},
		{"plain.cue", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EffectName(tt.path), tt.path)
	}
	assert.True(t, IsSource("x.fx.cue"))
	assert.False(t, IsSource("x.cue"))
}

func TestCompileCUEErrors(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantField string
		wantMsg   string
	}{
		{"missing effect", `other: 1`, "effect", "effect is required"},
		{"no technique", `effect: name: "x"`, "technique", "at least one technique"},
		{"no pass", `effect: technique: Main: {}`, "technique.Main", "at least one pass"},
		{"bad stage", `effect: technique: Main: pass: P0: shaders: pixel: "a.frag"`, "technique.Main.pass.P0.shaders", "unknown shader stage"},
		{"bad type", `effect: technique: Main: pass: P0: parameters: X: "float5"`, "technique.Main.pass.P0.parameters.X", "unknown parameter type"},
		{"no vertex", `effect: technique: Main: pass: P0: shaders: fragment: "a.frag"`, "technique.Main.pass.P0.shaders", "vertex or compute"},
		{"attribute clash", `effect: technique: Main: pass: P0: attributes: {a: 0, b: 0}`, "technique.Main.pass.P0.attributes.b", "already bound to a"},
		{"attribute location too large", `effect: technique: Main: pass: P0: attributes: a: 2147483648`, "technique.Main.pass.P0.attributes.a", "32 bits"},
		{"length too large", `effect: technique: Main: pass: P0: parameters: L: {type: "float", length: 2147483648}`, "technique.Main.pass.P0.parameters.L", "32 bits"},
		{"unknown blend field", `effect: technique: Main: pass: P0: blend: colour: "x"`, "colour", "unknown field"},
		{"struct with length", `effect: technique: Main: pass: P0: parameters: L: {length: 2, fields: {a: "float"}}`, "technique.Main.pass.P0.parameters.L", "cannot have a length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileCUE("bad.fx.cue", []byte(tt.src))
			require.Error(t, err)
			var ce *CompileError
			require.True(t, errors.As(err, &ce), "got %T: %v", err, err)
			assert.Equal(t, tt.wantField, ce.Field)
			assert.Contains(t, ce.Message, tt.wantMsg)
		})
	}
}

func TestCompileCUESyntaxErrorHasPosition(t *testing.T) {
	_, err := CompileCUE("broken.fx.cue", []byte("effect: {\n\tname: \n"))
	require.Error(t, err)
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, ce.Error(), "broken.fx.cue:")
}

func TestCompileTOMLErrors(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantField string
		wantMsg   string
		wantLine  bool
	}{
		{"syntax", "name = \n", "toml", "", true},
		{"unknown key", "colour = 1\n", "toml", "unknown field colour", false},
		{"no technique", "name = \"x\"\n", "technique", "at least one technique", false},
		{"unnamed pass", "[[technique]]\nname = \"Main\"\n[[technique.pass]]\n", "technique.Main.pass.", "name is required", false},
		{"duplicate pass", "[[technique]]\nname = \"Main\"\n[[technique.pass]]\nname = \"P0\"\n[[technique.pass]]\nname = \"P0\"\n", "technique.Main.pass.P0", "duplicate pass", false},
		{"missing type", "[[technique]]\nname = \"M\"\n[[technique.pass]]\nname = \"P\"\n[[technique.pass.parameter]]\nname = \"x\"\n", "technique.M.pass.P.parameters.x", "type is required", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileTOML("bad.fx.toml", []byte(tt.src))
			require.Error(t, err)
			var ce *CompileError
			require.True(t, errors.As(err, &ce), "got %T: %v", err, err)
			assert.Equal(t, tt.wantField, ce.Field)
			assert.Contains(t, ce.Message, tt.wantMsg)
			assert.Equal(t, "bad.fx.toml", ce.File)
			if tt.wantLine {
				assert.Positive(t, ce.Line)
			}
		})
	}
}

func TestCompileUnsupportedExtension(t *testing.T) {
	_, err := Compile("lit.fx.json", []byte("{}"))
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "file", ce.Field)
}
