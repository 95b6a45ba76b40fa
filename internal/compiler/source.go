// Package compiler turns declarative effect descriptions into
// effect.Content. Two source formats are accepted: CUE (*.fx.cue) and
// TOML (*.fx.toml). Both describe techniques, their passes, the shader
// file per stage, vertex attribute bindings, render states and the
// parameters each pass declares.
package compiler

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/contentpipe/internal/effect"
)

const (
	ExtCUE  = ".fx.cue"
	ExtTOML = ".fx.toml"
)

// IsSource reports whether path names an effect description.
func IsSource(path string) bool {
	return strings.HasSuffix(path, ExtCUE) || strings.HasSuffix(path, ExtTOML)
}

// EffectName derives the default effect name from a source path.
func EffectName(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{ExtCUE, ExtTOML} {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CompileFile reads and compiles the description at path.
func CompileFile(path string) (*effect.Content, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(path, src)
}

// Compile dispatches on the file name suffix.
func Compile(filename string, src []byte) (*effect.Content, error) {
	switch {
	case strings.HasSuffix(filename, ExtCUE):
		return CompileCUE(filename, src)
	case strings.HasSuffix(filename, ExtTOML):
		return CompileTOML(filename, src)
	}
	return nil, &CompileError{File: filename, Field: "file", Message: fmt.Sprintf("unsupported effect source, want %s or %s", ExtCUE, ExtTOML)}
}

// stageOrder is the order shader maps are flattened in.
var stageOrder = []effect.ShaderStage{
	effect.StageVertex,
	effect.StageTessControl,
	effect.StageTessEvaluation,
	effect.StageGeometry,
	effect.StageFragment,
	effect.StageCompute,
}

// check validates the compiled content. at maps a field path to an
// error carrying the best position the format can offer.
func check(c *effect.Content, at func(field, msg string) error) error {
	if len(c.Techniques) == 0 {
		return at("technique", "at least one technique is required")
	}
	techs := map[string]bool{}
	for _, tech := range c.Techniques {
		field := "technique." + tech.Name
		if techs[tech.Name] {
			return at(field, "duplicate technique")
		}
		techs[tech.Name] = true
		if len(tech.Passes) == 0 {
			return at(field, "at least one pass is required")
		}
		passes := map[string]bool{}
		for _, pass := range tech.Passes {
			pf := field + ".pass." + pass.Name
			if passes[pass.Name] {
				return at(pf, "duplicate pass")
			}
			passes[pass.Name] = true
			if err := checkPass(&pass, pf, at); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkPass(p *effect.Pass, field string, at func(field, msg string) error) error {
	hasVertex := false
	for _, s := range p.Shaders {
		if s.File == "" {
			return at(field+".shaders."+string(s.Stage), "shader file is empty")
		}
		hasVertex = hasVertex || s.Stage == effect.StageVertex || s.Stage == effect.StageCompute
	}
	if len(p.Shaders) > 0 && !hasVertex {
		return at(field+".shaders", "a vertex or compute shader is required")
	}
	locations := map[int]string{}
	for _, a := range p.Attributes {
		if a.Location < 0 {
			return at(field+".attributes."+a.Name, "location must not be negative")
		}
		if a.Location > math.MaxInt32 {
			return at(field+".attributes."+a.Name, "location must fit in 32 bits")
		}
		if prev, ok := locations[a.Location]; ok {
			return at(field+".attributes."+a.Name, fmt.Sprintf("location %d already bound to %s", a.Location, prev))
		}
		locations[a.Location] = a.Name
	}
	names := map[string]bool{}
	for _, param := range p.Parameters {
		if names[param.Name] {
			return at(field+".parameters."+param.Name, "duplicate parameter")
		}
		names[param.Name] = true
	}
	return nil
}

// parameterFrom builds a parameter from the generic description both
// formats decode to: a type name, an optional array length and optional
// struct members.
func parameterFrom(name, typ string, length int, fields []effect.Parameter) (effect.Parameter, error) {
	p := effect.Parameter{Name: name}
	switch {
	case len(fields) > 0:
		p.Kind = effect.KindStruct
		p.Type = effect.TypeStruct
		p.Fields = fields
		if length > 0 {
			return p, fmt.Errorf("struct parameters cannot have a length")
		}
		return p, nil
	case typ == "":
		return p, fmt.Errorf("type is required")
	}
	pt, err := effect.ParseParameterType(typ)
	if err != nil {
		return p, err
	}
	p.Type = pt
	if length < 0 {
		return p, fmt.Errorf("length must not be negative")
	}
	if length > math.MaxInt32 {
		return p, fmt.Errorf("length must fit in 32 bits")
	}
	if length > 0 {
		p.Kind = effect.KindArray
		p.Length = length
		p.Element = &effect.Parameter{Name: name + "[0]", Type: pt}
	}
	return p, nil
}
