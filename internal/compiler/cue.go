package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/contentpipe/internal/effect"
)

// CompileCUE compiles a CUE effect description. The document has one
// top-level "effect" struct:
//
//	effect: {
//		name: "lit"
//		technique: Main: pass: P0: {
//			shaders: {vertex: "lit.vert", fragment: "lit.frag"}
//			attributes: {position: 0, normal: 1}
//			blend: {enabled: true, source: "SrcAlpha", destination: "InvSrcAlpha"}
//			parameters: {
//				World: "mat4"
//				Bones: {type: "mat4", length: 4}
//				Light: {fields: {Color: "vec3", Power: "float"}}
//			}
//		}
//	}
//
// Techniques, passes and parameters keep their declaration order.
func CompileCUE(filename string, src []byte) (*effect.Content, error) {
	ctx := cuecontext.New()
	root := ctx.CompileBytes(src, cue.Filename(filename))
	if err := root.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	v := root.LookupPath(cue.ParsePath("effect"))
	if !v.Exists() {
		return nil, &CompileError{Field: "effect", Message: "effect is required", Pos: root.Pos(), File: filename}
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	c := &effect.Content{Name: EffectName(filename)}
	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		c.Name = name
	}

	techVal := v.LookupPath(cue.ParsePath("technique"))
	if techVal.Exists() {
		iter, err := techVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			tech, err := cueTechnique(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			c.Techniques = append(c.Techniques, tech)
		}
	}

	err := check(c, func(field, msg string) error {
		pos := v.Pos()
		if fv := v.LookupPath(cue.ParsePath(field)); fv.Exists() {
			pos = fv.Pos()
		}
		return &CompileError{Field: field, Message: msg, Pos: pos, File: filename}
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func cueTechnique(name string, v cue.Value) (effect.Technique, error) {
	tech := effect.Technique{Name: name}
	passVal := v.LookupPath(cue.ParsePath("pass"))
	if !passVal.Exists() {
		return tech, nil
	}
	iter, err := passVal.Fields()
	if err != nil {
		return tech, formatCUEError(err)
	}
	for iter.Next() {
		pass, err := cuePass(fmt.Sprintf("technique.%s.pass.%s", name, iter.Label()), iter.Label(), iter.Value())
		if err != nil {
			return tech, err
		}
		tech.Passes = append(tech.Passes, pass)
	}
	return tech, nil
}

func cuePass(field, name string, v cue.Value) (effect.Pass, error) {
	pass := effect.Pass{Name: name}

	if shaders := v.LookupPath(cue.ParsePath("shaders")); shaders.Exists() {
		byStage := map[effect.ShaderStage]string{}
		iter, err := shaders.Fields()
		if err != nil {
			return pass, formatCUEError(err)
		}
		for iter.Next() {
			stage, err := effect.ParseShaderStage(iter.Label())
			if err != nil {
				return pass, &CompileError{Field: field + ".shaders", Message: err.Error(), Pos: iter.Value().Pos()}
			}
			file, err := iter.Value().String()
			if err != nil {
				return pass, formatCUEError(err)
			}
			byStage[stage] = file
		}
		for _, stage := range stageOrder {
			if file, ok := byStage[stage]; ok {
				pass.Shaders = append(pass.Shaders, effect.Shader{Stage: stage, File: file})
			}
		}
	}

	if attrs := v.LookupPath(cue.ParsePath("attributes")); attrs.Exists() {
		iter, err := attrs.Fields()
		if err != nil {
			return pass, formatCUEError(err)
		}
		for iter.Next() {
			loc, err := iter.Value().Int64()
			if err != nil {
				return pass, formatCUEError(err)
			}
			pass.Attributes = append(pass.Attributes, effect.VertexAttribute{Name: iter.Label(), Location: int(loc)})
		}
	}

	if blend := v.LookupPath(cue.ParsePath("blend")); blend.Exists() {
		pass.Blend = &effect.BlendState{Enabled: true, Operation: "Add"}
		if err := decodeInto(blend, map[string]any{
			"enabled":     &pass.Blend.Enabled,
			"source":      &pass.Blend.Source,
			"destination": &pass.Blend.Destination,
			"operation":   &pass.Blend.Operation,
		}); err != nil {
			return pass, err
		}
	}
	if depth := v.LookupPath(cue.ParsePath("depth")); depth.Exists() {
		pass.DepthStencil = &effect.DepthStencilState{DepthTest: true, DepthWrite: true, Function: "Less"}
		if err := decodeInto(depth, map[string]any{
			"test":     &pass.DepthStencil.DepthTest,
			"write":    &pass.DepthStencil.DepthWrite,
			"function": &pass.DepthStencil.Function,
		}); err != nil {
			return pass, err
		}
	}
	if raster := v.LookupPath(cue.ParsePath("rasterizer")); raster.Exists() {
		pass.Rasterizer = &effect.RasterizerState{CullMode: "Back", FillMode: "Solid"}
		if err := decodeInto(raster, map[string]any{
			"cull":    &pass.Rasterizer.CullMode,
			"fill":    &pass.Rasterizer.FillMode,
			"scissor": &pass.Rasterizer.ScissorTest,
		}); err != nil {
			return pass, err
		}
	}

	if params := v.LookupPath(cue.ParsePath("parameters")); params.Exists() {
		var err error
		if pass.Parameters, err = cueParameters(field+".parameters", params); err != nil {
			return pass, err
		}
	}
	return pass, nil
}

// decodeInto decodes the named optional fields of v into targets.
func decodeInto(v cue.Value, targets map[string]any) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		target, ok := targets[iter.Label()]
		if !ok {
			return &CompileError{Field: iter.Label(), Message: "unknown field", Pos: iter.Value().Pos()}
		}
		if err := iter.Value().Decode(target); err != nil {
			return formatCUEError(err)
		}
	}
	return nil
}

// cueParameters reads parameters in declaration order. A parameter is a
// type name, or a struct with "type" and "length" for arrays, or a struct
// with "fields" for struct parameters.
func cueParameters(field string, v cue.Value) ([]effect.Parameter, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []effect.Parameter
	for iter.Next() {
		name, pv := iter.Label(), iter.Value()
		var (
			typ    string
			length int64
			fields []effect.Parameter
		)
		if s, err := pv.String(); err == nil {
			typ = s
		} else {
			if tv := pv.LookupPath(cue.ParsePath("type")); tv.Exists() {
				if typ, err = tv.String(); err != nil {
					return nil, formatCUEError(err)
				}
			}
			if lv := pv.LookupPath(cue.ParsePath("length")); lv.Exists() {
				if length, err = lv.Int64(); err != nil {
					return nil, formatCUEError(err)
				}
			}
			if fv := pv.LookupPath(cue.ParsePath("fields")); fv.Exists() {
				if fields, err = cueParameters(field+"."+name, fv); err != nil {
					return nil, err
				}
			}
		}
		p, err := parameterFrom(name, typ, int(length), fields)
		if err != nil {
			return nil, &CompileError{Field: field + "." + name, Message: err.Error(), Pos: pv.Pos()}
		}
		out = append(out, p)
	}
	return out, nil
}
