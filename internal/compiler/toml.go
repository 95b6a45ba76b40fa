package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/roach88/contentpipe/internal/effect"
)

// TOML descriptions use arrays of tables so that order survives:
//
//	name = "lit"
//
//	[[technique]]
//	name = "Main"
//
//	[[technique.pass]]
//	name = "P0"
//	shaders = { vertex = "lit.vert", fragment = "lit.frag" }
//	attributes = [{ name = "position", location = 0 }]
//	blend = { source = "SrcAlpha", destination = "InvSrcAlpha" }
//
//	[[technique.pass.parameter]]
//	name = "World"
//	type = "mat4"
type tomlDocument struct {
	Name      string          `toml:"name"`
	Technique []tomlTechnique `toml:"technique"`
}

type tomlTechnique struct {
	Name string     `toml:"name"`
	Pass []tomlPass `toml:"pass"`
}

type tomlPass struct {
	Name       string            `toml:"name"`
	Shaders    map[string]string `toml:"shaders"`
	Attributes []tomlAttribute   `toml:"attributes"`
	Blend      *tomlBlend        `toml:"blend"`
	Depth      *tomlDepth        `toml:"depth"`
	Rasterizer *tomlRasterizer   `toml:"rasterizer"`
	Parameter  []tomlParameter   `toml:"parameter"`
}

type tomlAttribute struct {
	Name     string `toml:"name"`
	Location int    `toml:"location"`
}

type tomlBlend struct {
	Enabled     *bool  `toml:"enabled"`
	Source      string `toml:"source"`
	Destination string `toml:"destination"`
	Operation   string `toml:"operation"`
}

type tomlDepth struct {
	Test     *bool  `toml:"test"`
	Write    *bool  `toml:"write"`
	Function string `toml:"function"`
}

type tomlRasterizer struct {
	Cull    string `toml:"cull"`
	Fill    string `toml:"fill"`
	Scissor bool   `toml:"scissor"`
}

type tomlParameter struct {
	Name   string          `toml:"name"`
	Type   string          `toml:"type"`
	Length int             `toml:"length"`
	Fields []tomlParameter `toml:"fields"`
}

// CompileTOML compiles a TOML effect description. Unknown keys are
// rejected.
func CompileTOML(filename string, src []byte) (*effect.Content, error) {
	var doc tomlDocument
	dec := toml.NewDecoder(bytes.NewReader(src))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, tomlError(filename, err)
	}

	at := func(field, msg string) error {
		return &CompileError{File: filename, Field: field, Message: msg}
	}

	c := &effect.Content{Name: doc.Name}
	if c.Name == "" {
		c.Name = EffectName(filename)
	}
	for _, tt := range doc.Technique {
		if tt.Name == "" {
			return nil, at("technique", "name is required")
		}
		tech := effect.Technique{Name: tt.Name}
		for _, tp := range tt.Pass {
			field := fmt.Sprintf("technique.%s.pass.%s", tt.Name, tp.Name)
			if tp.Name == "" {
				return nil, at(field, "name is required")
			}
			pass, err := tomlPassContent(field, tp, at)
			if err != nil {
				return nil, err
			}
			tech.Passes = append(tech.Passes, pass)
		}
		c.Techniques = append(c.Techniques, tech)
	}

	if err := check(c, at); err != nil {
		return nil, err
	}
	return c, nil
}

func tomlPassContent(field string, tp tomlPass, at func(field, msg string) error) (effect.Pass, error) {
	pass := effect.Pass{Name: tp.Name}

	stages := make([]string, 0, len(tp.Shaders))
	for s := range tp.Shaders {
		stages = append(stages, s)
	}
	sort.Strings(stages)
	byStage := map[effect.ShaderStage]string{}
	for _, s := range stages {
		stage, err := effect.ParseShaderStage(s)
		if err != nil {
			return pass, at(field+".shaders", err.Error())
		}
		byStage[stage] = tp.Shaders[s]
	}
	for _, stage := range stageOrder {
		if file, ok := byStage[stage]; ok {
			pass.Shaders = append(pass.Shaders, effect.Shader{Stage: stage, File: file})
		}
	}

	for _, a := range tp.Attributes {
		pass.Attributes = append(pass.Attributes, effect.VertexAttribute{Name: a.Name, Location: a.Location})
	}

	if b := tp.Blend; b != nil {
		pass.Blend = &effect.BlendState{Enabled: true, Source: b.Source, Destination: b.Destination, Operation: "Add"}
		if b.Enabled != nil {
			pass.Blend.Enabled = *b.Enabled
		}
		if b.Operation != "" {
			pass.Blend.Operation = b.Operation
		}
	}
	if d := tp.Depth; d != nil {
		pass.DepthStencil = &effect.DepthStencilState{DepthTest: true, DepthWrite: true, Function: "Less"}
		if d.Test != nil {
			pass.DepthStencil.DepthTest = *d.Test
		}
		if d.Write != nil {
			pass.DepthStencil.DepthWrite = *d.Write
		}
		if d.Function != "" {
			pass.DepthStencil.Function = d.Function
		}
	}
	if r := tp.Rasterizer; r != nil {
		pass.Rasterizer = &effect.RasterizerState{CullMode: "Back", FillMode: "Solid", ScissorTest: r.Scissor}
		if r.Cull != "" {
			pass.Rasterizer.CullMode = r.Cull
		}
		if r.Fill != "" {
			pass.Rasterizer.FillMode = r.Fill
		}
	}

	var err error
	pass.Parameters, err = tomlParameters(field+".parameters", tp.Parameter, at)
	return pass, err
}

func tomlParameters(field string, in []tomlParameter, at func(field, msg string) error) ([]effect.Parameter, error) {
	var out []effect.Parameter
	for _, tp := range in {
		if tp.Name == "" {
			return nil, at(field, "parameter name is required")
		}
		fields, err := tomlParameters(field+"."+tp.Name, tp.Fields, at)
		if err != nil {
			return nil, err
		}
		p, err := parameterFrom(tp.Name, tp.Type, tp.Length, fields)
		if err != nil {
			return nil, at(field+"."+tp.Name, err.Error())
		}
		out = append(out, p)
	}
	return out, nil
}

// tomlError converts decoder errors into positioned compile errors.
func tomlError(filename string, err error) error {
	var de *toml.DecodeError
	if errors.As(err, &de) {
		row, col := de.Position()
		return &CompileError{File: filename, Field: "toml", Message: de.Error(), Line: row, Column: col}
	}
	var sme *toml.StrictMissingError
	if errors.As(err, &sme) && len(sme.Errors) > 0 {
		first := sme.Errors[0]
		row, col := first.Position()
		return &CompileError{File: filename, Field: "toml", Message: "unknown field " + strings.Join([]string(first.Key()), "."), Line: row, Column: col}
	}
	return &CompileError{File: filename, Field: "toml", Message: err.Error()}
}
