// Package effect describes shader effects and generates the strongly typed
// effect classes that wrap them: one class per effect, a nested class per
// technique and a nested class per pass, with a typed property per pass
// parameter.
package effect

import "fmt"

// Content is a processed effect: techniques, their passes, and the
// parameters the graphics backend reported for each pass.
type Content struct {
	Name       string
	Techniques []Technique

	// GeneratedType is the full name of the class generated for this
	// effect, or empty when none was generated.
	GeneratedType string
}

type Technique struct {
	Name   string
	Passes []Pass
}

// Pass is one draw pass of a technique.
type Pass struct {
	Name         string
	Shaders      []Shader
	Attributes   []VertexAttribute
	Blend        *BlendState
	DepthStencil *DepthStencilState
	Rasterizer   *RasterizerState
	Parameters   []Parameter
}

// ShaderStage names a pipeline stage.
type ShaderStage string

const (
	StageVertex         ShaderStage = "vertex"
	StageFragment       ShaderStage = "fragment"
	StageGeometry       ShaderStage = "geometry"
	StageTessControl    ShaderStage = "tess_control"
	StageTessEvaluation ShaderStage = "tess_evaluation"
	StageCompute        ShaderStage = "compute"
)

// ParseShaderStage validates a stage name.
func ParseShaderStage(s string) (ShaderStage, error) {
	switch st := ShaderStage(s); st {
	case StageVertex, StageFragment, StageGeometry, StageTessControl, StageTessEvaluation, StageCompute:
		return st, nil
	}
	return "", fmt.Errorf("unknown shader stage %q", s)
}

// Shader binds a stage to a source file, relative to the effect file.
type Shader struct {
	Stage ShaderStage
	File  string
}

// VertexAttribute binds a named vertex input to a location.
type VertexAttribute struct {
	Name     string
	Location int
}

type BlendState struct {
	Enabled     bool
	Source      string
	Destination string
	Operation   string
}

type DepthStencilState struct {
	DepthTest  bool
	DepthWrite bool
	Function   string
}

type RasterizerState struct {
	CullMode    string
	FillMode    string
	ScissorTest bool
}

// ParameterKind distinguishes plain, struct and array parameters.
type ParameterKind int

const (
	KindScalar ParameterKind = iota
	KindStruct
	KindArray
)

// Parameter is a uniform reported by the backend. Struct parameters carry
// their members in Fields; array parameters carry Length and the element
// description in Element.
type Parameter struct {
	Name     string
	Type     ParameterType
	Location int
	Kind     ParameterKind
	Fields   []Parameter
	Length   int
	Element  *Parameter
}

// Technique returns the technique with the given name.
func (c *Content) Technique(name string) (*Technique, bool) {
	for i := range c.Techniques {
		if c.Techniques[i].Name == name {
			return &c.Techniques[i], true
		}
	}
	return nil, false
}

// Pass returns the pass with the given name.
func (t *Technique) Pass(name string) (*Pass, bool) {
	for i := range t.Passes {
		if t.Passes[i].Name == name {
			return &t.Passes[i], true
		}
	}
	return nil, false
}

// Parameter returns the parameter with the given name.
func (p *Pass) Parameter(name string) (*Parameter, bool) {
	for i := range p.Parameters {
		if p.Parameters[i].Name == name {
			return &p.Parameters[i], true
		}
	}
	return nil, false
}
