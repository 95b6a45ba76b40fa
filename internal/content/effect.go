package content

import (
	"fmt"

	"github.com/roach88/contentpipe/internal/effect"
)

// TagEffect is the reader name effect records are written with.
const TagEffect = "engenious.Content.Serialization.EffectReader"

// EffectVersion is the current effect payload version.
const EffectVersion = 1

// RegisterEffect adds the *effect.Content writer and reader.
func RegisterEffect(r *Registry) error {
	if err := Register(r, TagEffect, EffectVersion, writeEffect); err != nil {
		return err
	}
	return RegisterReader(r, TagEffect, readEffect)
}

// NewStandardRegistry returns a registry with every built-in writer and
// reader.
func NewStandardRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := RegisterPrimitives(r); err != nil {
		return nil, err
	}
	if err := RegisterEffect(r); err != nil {
		return nil, err
	}
	return r, nil
}

func writeEffect(cw *ContentWriter, c *effect.Content) error {
	cw.WriteString(c.Name)
	cw.WriteString(c.GeneratedType)
	cw.WriteUvarint(uint64(len(c.Techniques)))
	for _, tech := range c.Techniques {
		cw.WriteString(tech.Name)
		cw.WriteUvarint(uint64(len(tech.Passes)))
		for i := range tech.Passes {
			writePass(cw, &tech.Passes[i])
		}
	}
	return cw.Err()
}

func writePass(cw *ContentWriter, p *effect.Pass) {
	cw.WriteString(p.Name)

	cw.WriteUvarint(uint64(len(p.Shaders)))
	for _, s := range p.Shaders {
		cw.WriteString(string(s.Stage))
		cw.WriteString(s.File)
	}
	cw.WriteUvarint(uint64(len(p.Attributes)))
	for _, a := range p.Attributes {
		cw.WriteString(a.Name)
		cw.WriteInt(a.Location)
	}

	cw.WriteBool(p.Blend != nil)
	if b := p.Blend; b != nil {
		cw.WriteBool(b.Enabled)
		cw.WriteString(b.Source)
		cw.WriteString(b.Destination)
		cw.WriteString(b.Operation)
	}
	cw.WriteBool(p.DepthStencil != nil)
	if d := p.DepthStencil; d != nil {
		cw.WriteBool(d.DepthTest)
		cw.WriteBool(d.DepthWrite)
		cw.WriteString(d.Function)
	}
	cw.WriteBool(p.Rasterizer != nil)
	if r := p.Rasterizer; r != nil {
		cw.WriteString(r.CullMode)
		cw.WriteString(r.FillMode)
		cw.WriteBool(r.ScissorTest)
	}

	cw.WriteUvarint(uint64(len(p.Parameters)))
	for i := range p.Parameters {
		writeParameter(cw, &p.Parameters[i])
	}
}

func writeParameter(cw *ContentWriter, p *effect.Parameter) {
	cw.WriteString(p.Name)
	cw.WriteString(string(p.Type))
	cw.WriteInt(p.Location)
	_ = cw.WriteByte(byte(p.Kind))
	switch p.Kind {
	case effect.KindStruct:
		cw.WriteUvarint(uint64(len(p.Fields)))
		for i := range p.Fields {
			writeParameter(cw, &p.Fields[i])
		}
	case effect.KindArray:
		cw.WriteInt(p.Length)
		cw.WriteBool(p.Element != nil)
		if p.Element != nil {
			writeParameter(cw, p.Element)
		}
	}
}

func readEffect(cr *ContentReader, version uint32) (*effect.Content, error) {
	if version == 0 || version > EffectVersion {
		return nil, fmt.Errorf("unsupported effect version %d", version)
	}
	c := &effect.Content{
		Name:          cr.ReadString(),
		GeneratedType: cr.ReadString(),
	}
	n := cr.ReadCount()
	for i := 0; i < n && cr.Err() == nil; i++ {
		tech := effect.Technique{Name: cr.ReadString()}
		passes := cr.ReadCount()
		for j := 0; j < passes && cr.Err() == nil; j++ {
			p, err := readPass(cr)
			if err != nil {
				return nil, err
			}
			tech.Passes = append(tech.Passes, p)
		}
		c.Techniques = append(c.Techniques, tech)
	}
	return c, cr.Err()
}

func readPass(cr *ContentReader) (effect.Pass, error) {
	p := effect.Pass{Name: cr.ReadString()}

	n := cr.ReadCount()
	for i := 0; i < n && cr.Err() == nil; i++ {
		stage, file := cr.ReadString(), cr.ReadString()
		st, err := effect.ParseShaderStage(stage)
		if err != nil && cr.Err() == nil {
			return p, err
		}
		p.Shaders = append(p.Shaders, effect.Shader{Stage: st, File: file})
	}
	n = cr.ReadCount()
	for i := 0; i < n && cr.Err() == nil; i++ {
		p.Attributes = append(p.Attributes, effect.VertexAttribute{Name: cr.ReadString(), Location: int(cr.ReadInt32())})
	}

	if cr.ReadBool() {
		p.Blend = &effect.BlendState{
			Enabled:     cr.ReadBool(),
			Source:      cr.ReadString(),
			Destination: cr.ReadString(),
			Operation:   cr.ReadString(),
		}
	}
	if cr.ReadBool() {
		p.DepthStencil = &effect.DepthStencilState{
			DepthTest:  cr.ReadBool(),
			DepthWrite: cr.ReadBool(),
			Function:   cr.ReadString(),
		}
	}
	if cr.ReadBool() {
		p.Rasterizer = &effect.RasterizerState{
			CullMode:    cr.ReadString(),
			FillMode:    cr.ReadString(),
			ScissorTest: cr.ReadBool(),
		}
	}

	n = cr.ReadCount()
	for i := 0; i < n && cr.Err() == nil; i++ {
		param, err := readParameter(cr, 0)
		if err != nil {
			return p, err
		}
		p.Parameters = append(p.Parameters, param)
	}
	return p, cr.Err()
}

// maxParameterDepth bounds struct and array nesting.
const maxParameterDepth = 16

func readParameter(cr *ContentReader, depth int) (effect.Parameter, error) {
	if depth > maxParameterDepth {
		return effect.Parameter{}, fmt.Errorf("parameter nesting exceeds %d", maxParameterDepth)
	}
	p := effect.Parameter{
		Name:     cr.ReadString(),
		Type:     effect.ParameterType(cr.ReadString()),
		Location: int(cr.ReadInt32()),
	}
	kind, _ := cr.ReadByte()
	p.Kind = effect.ParameterKind(kind)
	switch p.Kind {
	case effect.KindScalar:
	case effect.KindStruct:
		n := cr.ReadCount()
		for i := 0; i < n && cr.Err() == nil; i++ {
			f, err := readParameter(cr, depth+1)
			if err != nil {
				return p, err
			}
			p.Fields = append(p.Fields, f)
		}
	case effect.KindArray:
		p.Length = int(cr.ReadInt32())
		if cr.ReadBool() {
			elem, err := readParameter(cr, depth+1)
			if err != nil {
				return p, err
			}
			p.Element = &elem
		}
	default:
		if cr.Err() == nil {
			return p, fmt.Errorf("parameter %s: unknown kind %d", p.Name, kind)
		}
	}
	return p, cr.Err()
}
