// Package corelib builds the read-only reference module that generated
// effect types derive from and call into. Method bodies are absent; the
// interpreter binds them to host implementations (see effect.Instantiate).
package corelib

import (
	"github.com/roach88/contentpipe/internal/ir"
	"github.com/roach88/contentpipe/internal/module"
)

// ModuleName is the name of the reference module.
const ModuleName = "engenious"

// AttributeTargetsAssembly is the AttributeTargets flag for assembly-level
// application.
const AttributeTargetsAssembly = 1

// Type references into the reference module.
var (
	AttributeTargets = ir.ValueRef("System.AttributeTargets")
	AttributeUsage   = ir.Ref("System.AttributeUsageAttribute")

	Vector2    = ir.ValueRef("engenious.Vector2")
	Vector3    = ir.ValueRef("engenious.Vector3")
	Vector4    = ir.ValueRef("engenious.Vector4")
	Matrix     = ir.ValueRef("engenious.Matrix")
	Point      = ir.ValueRef("engenious.Point")
	Quaternion = ir.ValueRef("engenious.Quaternion")
	Color      = ir.ValueRef("engenious.Color")

	GraphicsDevice                = ir.Ref("engenious.Graphics.GraphicsDevice")
	Texture                       = ir.Ref("engenious.Graphics.Texture")
	Texture2D                     = ir.Ref("engenious.Graphics.Texture2D")
	Texture2DArray                = ir.Ref("engenious.Graphics.Texture2DArray")
	Effect                        = ir.Ref("engenious.Graphics.Effect")
	EffectTechnique               = ir.Ref("engenious.Graphics.EffectTechnique")
	EffectTechniqueCollection     = ir.Ref("engenious.Graphics.EffectTechniqueCollection")
	EffectPass                    = ir.Ref("engenious.Graphics.EffectPass")
	EffectPassCollection          = ir.Ref("engenious.Graphics.EffectPassCollection")
	EffectPassParameter           = ir.Ref("engenious.Graphics.EffectPassParameter")
	EffectPassParameterCollection = ir.Ref("engenious.Graphics.EffectPassParameterCollection")
)

// ValueTypes lists the engine value types that define op_Equality.
var ValueTypes = []ir.TypeRef{Vector2, Vector3, Vector4, Matrix, Point, Quaternion, Color}

// SetValueTypes lists the parameter types EffectPassParameter.SetValue has
// overloads for.
var SetValueTypes = []ir.TypeRef{
	ir.TypeBoolean, ir.TypeDouble, ir.TypeSingle, ir.TypeInt32, ir.TypeUInt32,
	Matrix, Vector2, Vector3, Vector4, Point, Texture2D, Texture2DArray,
}

// New builds a fresh reference module. Each call returns an independent
// graph, so tests and builds never share state.
func New() *module.Module {
	m := module.New(ModuleName)
	for _, t := range systemTypes() {
		mustAdd(m, t)
	}
	for _, ref := range ValueTypes {
		mustAdd(m, valueType(ref))
	}
	for _, t := range graphicsTypes() {
		mustAdd(m, t)
	}
	return m
}

func mustAdd(m *module.Module, t *ir.TypeDef) {
	if err := m.AddType(t); err != nil {
		panic(err)
	}
}

func newType(ref ir.TypeRef, base ir.TypeRef) *ir.TypeDef {
	ns, name := split(ref.FullName)
	t := ir.NewType(ns, name, base)
	if ref.ValueType {
		t.Flags |= ir.TypeValueType | ir.TypeSealed
	}
	return t
}

func split(fullName string) (string, string) {
	for i := len(fullName) - 1; i >= 0; i-- {
		if fullName[i] == '.' {
			return fullName[:i], fullName[i+1:]
		}
	}
	return "", fullName
}

func method(name string, vis ir.Visibility, flags ir.MethodFlags, ret ir.TypeRef, params ...ir.ParamDef) *ir.MethodDef {
	if ret.IsZero() {
		ret = ir.TypeVoid
	}
	return &ir.MethodDef{
		Name:       name,
		Visibility: vis,
		Flags:      flags | ir.FlagHideBySig,
		Params:     params,
		ReturnType: ret,
	}
}

func param(name string, t ir.TypeRef) ir.ParamDef {
	return ir.ParamDef{Name: name, ParamType: t}
}

func ctor(vis ir.Visibility, params ...ir.ParamDef) *ir.MethodDef {
	return method(ir.ConstructorName, vis, ir.FlagSpecialName|ir.FlagRTSpecialName, ir.TypeVoid, params...)
}

// getter adds a read-only property with an extern accessor.
func getter(t *ir.TypeDef, name string, typ ir.TypeRef, params ...ir.ParamDef) {
	g := method("get_"+name, ir.Public, ir.FlagSpecialName, typ, params...)
	t.AddMethod(g)
	t.AddProperty(&ir.PropertyDef{Name: name, PropertyType: typ, Getter: g})
}

func systemTypes() []*ir.TypeDef {
	object := newType(ir.TypeObject, ir.TypeRef{})
	object.AddMethod(ctor(ir.Public))

	var out = []*ir.TypeDef{object}
	for _, ref := range []ir.TypeRef{ir.TypeVoid, ir.TypeBoolean, ir.TypeInt32, ir.TypeUInt32, ir.TypeSingle, ir.TypeDouble, AttributeTargets} {
		out = append(out, newType(ref, ir.Ref("System.ValueType")))
	}
	out = append(out, newType(ir.Ref("System.ValueType"), ir.TypeObject))
	out = append(out, newType(ir.TypeString, ir.TypeObject))

	attribute := newType(ir.TypeAttribute, ir.TypeObject)
	attribute.AddMethod(ctor(ir.Family))
	out = append(out, attribute)

	usage := newType(AttributeUsage, ir.TypeAttribute)
	usage.Flags |= ir.TypeSealed
	usage.AddMethod(ctor(ir.Public, param("validOn", AttributeTargets)))
	out = append(out, usage)
	return out
}

func valueType(ref ir.TypeRef) *ir.TypeDef {
	t := newType(ref, ir.Ref("System.ValueType"))
	t.AddMethod(method("op_Equality", ir.Public, ir.FlagStatic|ir.FlagSpecialName, ir.TypeBoolean,
		param("left", ref), param("right", ref)))
	return t
}

func graphicsTypes() []*ir.TypeDef {
	device := newType(GraphicsDevice, ir.TypeObject)

	texture := newType(Texture, ir.TypeObject)
	texture2D := newType(Texture2D, Texture)
	textureArray := newType(Texture2DArray, Texture)

	parameter := newType(EffectPassParameter, ir.TypeObject)
	getter(parameter, "Name", ir.TypeString)
	for _, vt := range SetValueTypes {
		parameter.AddMethod(method("SetValue", ir.Public, 0, ir.TypeVoid, param("value", vt)))
	}

	parameters := newType(EffectPassParameterCollection, ir.TypeObject)
	getter(parameters, "Item", EffectPassParameter, param("name", ir.TypeString))

	pass := newType(EffectPass, ir.TypeObject)
	pass.AddMethod(ctor(ir.Family, param("name", ir.TypeString)))
	getter(pass, "Name", ir.TypeString)
	getter(pass, "Parameters", EffectPassParameterCollection)
	pass.AddMethod(method("CacheParameters", ir.Family, ir.FlagVirtual|ir.FlagNewSlot, ir.TypeVoid))
	pass.AddMethod(method("Apply", ir.Public, 0, ir.TypeVoid))

	passes := newType(EffectPassCollection, ir.TypeObject)
	getter(passes, "Item", EffectPass, param("name", ir.TypeString))

	technique := newType(EffectTechnique, ir.TypeObject)
	technique.AddMethod(ctor(ir.Family, param("name", ir.TypeString)))
	getter(technique, "Name", ir.TypeString)
	getter(technique, "Passes", EffectPassCollection)
	technique.AddMethod(method("Initialize", ir.Family, ir.FlagVirtual|ir.FlagNewSlot, ir.TypeVoid))

	techniques := newType(EffectTechniqueCollection, ir.TypeObject)
	getter(techniques, "Item", EffectTechnique, param("name", ir.TypeString))

	effect := newType(Effect, ir.TypeObject)
	effect.AddMethod(ctor(ir.Family, param("graphicsDevice", GraphicsDevice)))
	getter(effect, "GraphicsDevice", GraphicsDevice)
	getter(effect, "Techniques", EffectTechniqueCollection)
	effect.AddMethod(method("Initialize", ir.Family, ir.FlagVirtual|ir.FlagNewSlot, ir.TypeVoid))

	return []*ir.TypeDef{
		device, texture, texture2D, textureArray,
		parameter, parameters, pass, passes,
		technique, techniques, effect,
	}
}
